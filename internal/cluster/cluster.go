// Package cluster groups voice embeddings into speaker clusters using
// bottom-up agglomerative clustering with Ward linkage over Euclidean
// distance.
package cluster

import (
	"fmt"
	"sort"
)

// Auto requests automatic selection of the speaker count.
const Auto = 0

// maxAutoSpeakers bounds the search range in automatic mode.
const maxAutoSpeakers = 8

// InsufficientDataError reports a request for more speaker clusters
// than there are embeddings to cluster.
type InsufficientDataError struct {
	Have int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot cluster %d embeddings into %d speakers", e.Have, e.Want)
}

// Assign groups embeddings into numSpeakers clusters and returns one
// zero-based cluster index per embedding, in input order. Indices are
// numbered by first appearance, so the first embedding always gets
// index 0. Pass Auto to select the count by maximizing the mean
// silhouette score over 2..min(8, n-1).
//
// Each call is an independent unsupervised run: indices do not
// correlate across calls.
func Assign(embeddings [][]float64, numSpeakers int) ([]int, error) {
	if numSpeakers <= Auto {
		return assignAuto(embeddings)
	}
	if len(embeddings) < numSpeakers {
		return nil, &InsufficientDataError{Have: len(embeddings), Want: numSpeakers}
	}
	return agglomerate(embeddings, numSpeakers), nil
}

func assignAuto(embeddings [][]float64) ([]int, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, nil
	}

	// Too few points to score a split; everything is one speaker.
	best := make([]int, n)
	if n < 3 {
		return best, nil
	}

	bestScore := -1.0
	limit := maxAutoSpeakers
	if n-1 < limit {
		limit = n - 1
	}
	for k := 2; k <= limit; k++ {
		labels := agglomerate(embeddings, k)
		score := silhouette(embeddings, labels, k)
		if score > bestScore {
			bestScore = score
			best = labels
		}
	}
	return best, nil
}

// agglomerate merges the closest pair of clusters until k remain. Ward
// linkage is computed on squared Euclidean distances with the
// Lance-Williams recurrence. Quadratic memory and cubic time are fine
// at transcript-segment counts.
func agglomerate(embeddings [][]float64, k int) []int {
	n := len(embeddings)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sqDist(embeddings[i], embeddings[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	members := make([][]int, n)
	for i := 0; i < n; i++ {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
	}

	for remaining := n; remaining > k; remaining-- {
		// Closest active pair, lowest indices on equal distance.
		bi, bj := -1, -1
		bd := 0.0
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if bi < 0 || dist[i][j] < bd {
					bi, bj, bd = i, j, dist[i][j]
				}
			}
		}

		// Merge bj into bi and update distances to every other cluster.
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			ni, nj, nm := float64(size[bi]), float64(size[bj]), float64(size[m])
			d := ((ni+nm)*dist[bi][m] + (nj+nm)*dist[bj][m] - nm*dist[bi][bj]) / (ni + nj + nm)
			dist[bi][m] = d
			dist[m][bi] = d
		}
		size[bi] += size[bj]
		members[bi] = append(members[bi], members[bj]...)
		active[bj] = false
	}

	// Number clusters by their earliest member so labels follow first
	// appearance in the input.
	type group struct {
		first   int
		members []int
	}
	var groups []group
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		first := members[i][0]
		for _, m := range members[i] {
			if m < first {
				first = m
			}
		}
		groups = append(groups, group{first: first, members: members[i]})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].first < groups[b].first })

	labels := make([]int, n)
	for idx, g := range groups {
		for _, m := range g.members {
			labels[m] = idx
		}
	}
	return labels
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
