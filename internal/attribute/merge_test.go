package attribute

import (
	"context"
	"fmt"
	"testing"

	"github.com/speakerlab/diascribe/internal/embedding"
)

// stubCropper hands back a one-sample mono waveform carrying the
// interval start, so the encoder can derive a separable vector per
// segment.
type stubCropper struct{}

func (stubCropper) Crop(audioPath string, start, end float64) (*embedding.Waveform, error) {
	return &embedding.Waveform{Samples: [][]float64{{start}}, SampleRate: 16000}, nil
}

// stubEncoder maps a waveform to a 4-d vector in one of two far-apart
// regions depending on the carried start time.
type stubEncoder struct{}

func (stubEncoder) Dim() int { return 4 }

func (stubEncoder) Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	vec := make([]float64, 4)
	if samples[0] >= 100 {
		vec[0] = 1000
	}
	return vec, nil
}

type failingEncoder struct{}

func (failingEncoder) Dim() int { return 4 }

func (failingEncoder) Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	return nil, fmt.Errorf("extractor crashed")
}

func TestMergeWithDiarizationPreservesOrderAndCount(t *testing.T) {
	segments := []TranscriptSegment{
		{Start: 0, End: 4, Text: "first"},
		{Start: 4, End: 9, Text: "second"},
		{Start: 9, End: 15, Text: "third"},
	}
	turns := []DiarizationTurn{
		{Start: 0, End: 5, Speaker: "SPEAKER_00"},
		{Start: 5, End: 15, Speaker: "SPEAKER_01"},
	}

	labeled := MergeWithDiarization(segments, turns)

	if len(labeled) != len(segments) {
		t.Fatalf("Expected %d labeled segments, got %d", len(segments), len(labeled))
	}
	for i, seg := range segments {
		if labeled[i].Start != seg.Start || labeled[i].End != seg.End || labeled[i].Text != seg.Text {
			t.Errorf("Segment %d was altered: %+v vs %+v", i, labeled[i], seg)
		}
	}
	if labeled[0].Speaker != "SPEAKER_00" {
		t.Errorf("Expected SPEAKER_00 for first segment, got %s", labeled[0].Speaker)
	}
	if labeled[2].Speaker != "SPEAKER_01" {
		t.Errorf("Expected SPEAKER_01 for third segment, got %s", labeled[2].Speaker)
	}
}

func TestMergeWithDiarizationUncoveredSegment(t *testing.T) {
	segments := []TranscriptSegment{{Start: 100, End: 110, Text: "late"}}
	turns := []DiarizationTurn{{Start: 0, End: 50, Speaker: "SPEAKER_00"}}

	labeled := MergeWithDiarization(segments, turns)
	if labeled[0].Speaker != UnknownSpeaker {
		t.Errorf("Expected %s, got %s", UnknownSpeaker, labeled[0].Speaker)
	}
}

func TestMergeWithClusteringLabelsByVoice(t *testing.T) {
	segments := []TranscriptSegment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 100, End: 105, Text: "b"},
		{Start: 6, End: 10, Text: "c"},
		{Start: 110, End: 115, Text: "d"},
	}

	svc := embedding.NewService(stubCropper{}, stubEncoder{}, 2)
	merger := NewMerger(svc)

	labeled, err := merger.MergeWithClustering(context.Background(), segments, "audio.wav", 200, 2)
	if err != nil {
		t.Fatalf("MergeWithClustering failed: %v", err)
	}
	if len(labeled) != len(segments) {
		t.Fatalf("Expected %d labeled segments, got %d", len(segments), len(labeled))
	}

	// Segments 0 and 2 share a voice region, as do 1 and 3.
	if labeled[0].Speaker != labeled[2].Speaker {
		t.Errorf("Segments 0 and 2 should share a label: %s vs %s", labeled[0].Speaker, labeled[2].Speaker)
	}
	if labeled[1].Speaker != labeled[3].Speaker {
		t.Errorf("Segments 1 and 3 should share a label: %s vs %s", labeled[1].Speaker, labeled[3].Speaker)
	}
	if labeled[0].Speaker == labeled[1].Speaker {
		t.Errorf("Distinct voices got the same label %s", labeled[0].Speaker)
	}
	if labeled[0].Speaker != "SPEAKER 1" {
		t.Errorf("First segment should carry the first cluster label, got %s", labeled[0].Speaker)
	}

	for i, seg := range segments {
		if labeled[i].Text != seg.Text || labeled[i].Start != seg.Start {
			t.Errorf("Segment %d order not preserved", i)
		}
	}
}

func TestMergeWithClusteringSurvivesFailingExtractor(t *testing.T) {
	segments := []TranscriptSegment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 5, End: 10, Text: "b"},
	}

	svc := embedding.NewService(stubCropper{}, failingEncoder{}, 1)
	merger := NewMerger(svc)

	labeled, err := merger.MergeWithClustering(context.Background(), segments, "audio.wav", 10, 1)
	if err != nil {
		t.Fatalf("Expected graceful degradation, got error: %v", err)
	}
	for i, seg := range labeled {
		if seg.Speaker != "SPEAKER 1" {
			t.Errorf("Segment %d: expected SPEAKER 1, got %s", i, seg.Speaker)
		}
	}
}

func TestMergeWithClusteringInsufficientData(t *testing.T) {
	segments := []TranscriptSegment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 5, End: 10, Text: "b"},
	}

	svc := embedding.NewService(stubCropper{}, stubEncoder{}, 1)
	merger := NewMerger(svc)

	if _, err := merger.MergeWithClustering(context.Background(), segments, "audio.wav", 10, 5); err == nil {
		t.Fatal("Expected an error for 2 segments and 5 requested speakers")
	}
}

func TestClusterLabel(t *testing.T) {
	if got := ClusterLabel(0); got != "SPEAKER 1" {
		t.Errorf("Expected SPEAKER 1, got %s", got)
	}
	if got := ClusterLabel(2); got != "SPEAKER 3" {
		t.Errorf("Expected SPEAKER 3, got %s", got)
	}
}
