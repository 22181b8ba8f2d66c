package cluster

import "math"

// silhouette returns the mean silhouette coefficient of a labeling.
// Scores range from -1 (wrong clusters) to 1 (tight, well-separated
// clusters). Points in singleton clusters score 0.
func silhouette(embeddings [][]float64, labels []int, k int) float64 {
	n := len(embeddings)
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	for i := 0; i < n; i++ {
		if counts[labels[i]] == 1 {
			continue
		}

		// Mean distance to every cluster.
		sums := make([]float64, k)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += math.Sqrt(sqDist(embeddings[i], embeddings[j]))
		}

		a := sums[labels[i]] / float64(counts[labels[i]]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == labels[i] || counts[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(counts[c]); mean < b {
				b = mean
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}
