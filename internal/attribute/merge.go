package attribute

import (
	"context"
	"fmt"
	"log"

	"github.com/speakerlab/diascribe/internal/cluster"
	"github.com/speakerlab/diascribe/internal/embedding"
)

// MergeWithDiarization attaches a speaker label to every transcript
// segment using the diarizer's turns. Each segment is resolved
// independently; the output preserves the order and count of the
// input one-to-one.
func MergeWithDiarization(segments []TranscriptSegment, turns []DiarizationTurn) []LabeledSegment {
	labeled := make([]LabeledSegment, len(segments))
	for i, seg := range segments {
		labeled[i] = LabeledSegment{
			Start:   seg.Start,
			End:     seg.End,
			Text:    seg.Text,
			Speaker: BestSpeaker(seg, turns),
		}
	}
	return labeled
}

// Merger derives speaker labels from voice embeddings when no
// diarizer output is available.
type Merger struct {
	embedder *embedding.Service
}

func NewMerger(embedder *embedding.Service) *Merger {
	return &Merger{embedder: embedder}
}

// MergeWithClustering embeds every segment, clusters the whole batch
// in one call, and zips the cluster labels back onto the segments in
// order. The cluster step needs the full batch: assignment is a
// property of the whole segment population, not of any single
// segment. Per-segment embedding failures degrade to zero vectors;
// the cluster call itself failing aborts the merge.
func (m *Merger) MergeWithClustering(ctx context.Context, segments []TranscriptSegment, audioPath string, audioDuration float64, numSpeakers int) ([]LabeledSegment, error) {
	spans := make([]embedding.Span, len(segments))
	for i, seg := range segments {
		spans[i] = embedding.Span{Start: seg.Start, End: seg.End}
	}

	results := m.embedder.EmbedAll(ctx, audioPath, spans, audioDuration)

	vectors := make([][]float64, len(results))
	failed := 0
	for i, r := range results {
		vectors[i] = r.Vector
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("Embedded %d segments, %d degraded to zero vectors", len(results), failed)
	}

	labels, err := cluster.Assign(vectors, numSpeakers)
	if err != nil {
		return nil, fmt.Errorf("cluster %d segments: %w", len(segments), err)
	}

	labeled := make([]LabeledSegment, len(segments))
	for i, seg := range segments {
		labeled[i] = LabeledSegment{
			Start:   seg.Start,
			End:     seg.End,
			Text:    seg.Text,
			Speaker: ClusterLabel(labels[i]),
		}
	}
	return labeled, nil
}
