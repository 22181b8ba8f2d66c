package attribute

import "math"

// BestSpeaker returns the speaker whose diarization turns overlap the
// segment the most. Overlap is accumulated per speaker across all
// turns that intersect the segment. On a tie the speaker first
// encountered in turn order wins, so the result is deterministic for a
// fixed turn sequence. Returns UnknownSpeaker when no turn overlaps
// the segment at all.
func BestSpeaker(segment TranscriptSegment, turns []DiarizationTurn) string {
	totals := make(map[string]float64)
	var order []string

	for _, turn := range turns {
		overlap := math.Min(segment.End, turn.End) - math.Max(segment.Start, turn.Start)
		if overlap <= 0 {
			continue
		}
		if _, seen := totals[turn.Speaker]; !seen {
			order = append(order, turn.Speaker)
		}
		totals[turn.Speaker] += overlap
	}

	if len(order) == 0 {
		return UnknownSpeaker
	}

	best := order[0]
	for _, speaker := range order[1:] {
		if totals[speaker] > totals[best] {
			best = speaker
		}
	}
	return best
}
