package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
)

// recordingCropper remembers the intervals it was asked for.
type recordingCropper struct {
	mu        sync.Mutex
	intervals [][2]float64
	waveform  *Waveform
	err       error
}

func (c *recordingCropper) Crop(audioPath string, start, end float64) (*Waveform, error) {
	c.mu.Lock()
	c.intervals = append(c.intervals, [2]float64{start, end})
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.waveform != nil {
		return c.waveform, nil
	}
	return &Waveform{Samples: [][]float64{{0.5, 0.5}}, SampleRate: 16000}, nil
}

// echoEncoder returns a fixed-dim vector whose first components echo
// the input samples.
type echoEncoder struct{ dim int }

func (e echoEncoder) Dim() int { return e.dim }

func (e echoEncoder) Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	vec := make([]float64, e.dim)
	copy(vec, samples)
	return vec, nil
}

type erroringEncoder struct{ dim int }

func (e erroringEncoder) Dim() int { return e.dim }

func (e erroringEncoder) Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	return nil, fmt.Errorf("model exploded")
}

func TestEmbedClampsEndToAudioDuration(t *testing.T) {
	cropper := &recordingCropper{}
	svc := NewService(cropper, echoEncoder{dim: 4}, 1)

	result := svc.Embed(context.Background(), "a.wav", Span{Start: 10, End: 99}, 42.5)
	if result.Failed() {
		t.Fatalf("Unexpected failure: %v", result.Err)
	}
	if len(cropper.intervals) != 1 {
		t.Fatalf("Expected one crop call, got %d", len(cropper.intervals))
	}
	if got := cropper.intervals[0][1]; got != 42.5 {
		t.Errorf("Expected end clamped to 42.5, got %v", got)
	}
}

func TestEmbedDegenerateIntervalReturnsZeroVector(t *testing.T) {
	cropper := &recordingCropper{}
	svc := NewService(cropper, echoEncoder{dim: 4}, 1)

	// Start beyond the audio duration: clamping makes the interval
	// empty.
	result := svc.Embed(context.Background(), "a.wav", Span{Start: 50, End: 60}, 40)
	if !result.Failed() {
		t.Fatal("Expected a failed result for a degenerate interval")
	}
	assertZeroVector(t, result.Vector, 4)
	if len(cropper.intervals) != 0 {
		t.Errorf("Cropper should not be called for a degenerate interval")
	}
}

func TestEmbedFailuresAreAbsorbed(t *testing.T) {
	testCases := []struct {
		description string
		cropper     *recordingCropper
		encoder     Encoder
	}{
		{
			description: "Cropper error",
			cropper:     &recordingCropper{err: fmt.Errorf("corrupt file")},
			encoder:     echoEncoder{dim: 8},
		},
		{
			description: "Encoder error",
			cropper:     &recordingCropper{},
			encoder:     erroringEncoder{dim: 8},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			svc := NewService(tc.cropper, tc.encoder, 1)
			result := svc.Embed(context.Background(), "a.wav", Span{Start: 0, End: 1}, 10)
			if !result.Failed() {
				t.Fatal("Expected a failed result")
			}
			assertZeroVector(t, result.Vector, 8)
		})
	}
}

func TestEmbedAllKeepsOrderAndLength(t *testing.T) {
	cropper := &recordingCropper{}
	svc := NewService(cropper, echoEncoder{dim: 4}, 3)

	spans := []Span{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}}
	results := svc.EmbedAll(context.Background(), "a.wav", spans, 100)

	if len(results) != len(spans) {
		t.Fatalf("Expected %d results, got %d", len(spans), len(results))
	}
	for i, r := range results {
		if r.Failed() {
			t.Errorf("Result %d unexpectedly failed: %v", i, r.Err)
		}
		if len(r.Vector) != 4 {
			t.Errorf("Result %d has %d components, want 4", i, len(r.Vector))
		}
	}
}

func TestEmbedAllAllFailuresStillFullBatch(t *testing.T) {
	svc := NewService(&recordingCropper{}, erroringEncoder{dim: 192}, 2)

	spans := []Span{{0, 1}, {1, 2}, {2, 3}}
	results := svc.EmbedAll(context.Background(), "a.wav", spans, 100)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Failed() {
			t.Errorf("Result %d should have failed", i)
		}
		assertZeroVector(t, r.Vector, 192)
	}
}

func TestEmbedAllSanitizesNonFiniteComponents(t *testing.T) {
	cropper := &recordingCropper{
		waveform: &Waveform{Samples: [][]float64{{math.NaN(), math.Inf(1), math.Inf(-1), 0.25}}, SampleRate: 16000},
	}
	svc := NewService(cropper, echoEncoder{dim: 4}, 1)

	results := svc.EmbedAll(context.Background(), "a.wav", []Span{{0, 1}}, 10)
	vec := results[0].Vector
	for i, v := range vec[:3] {
		if v != 0 {
			t.Errorf("Component %d should be sanitized to 0, got %v", i, v)
		}
	}
	if vec[3] != 0.25 {
		t.Errorf("Finite component should be untouched, got %v", vec[3])
	}
}

func TestMixdownAveragesChannels(t *testing.T) {
	testCases := []struct {
		description string
		waveform    *Waveform
		expected    []float64
	}{
		{
			description: "Mono passthrough",
			waveform:    &Waveform{Samples: [][]float64{{0.1, 0.2}}},
			expected:    []float64{0.1, 0.2},
		},
		{
			description: "Stereo average",
			waveform:    &Waveform{Samples: [][]float64{{1, 0}, {0, 1}}},
			expected:    []float64{0.5, 0.5},
		},
		{
			description: "No channels",
			waveform:    &Waveform{},
			expected:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			mono := Mixdown(tc.waveform)
			if len(mono) != len(tc.expected) {
				t.Fatalf("Expected %d samples, got %d", len(tc.expected), len(mono))
			}
			for i := range mono {
				if math.Abs(mono[i]-tc.expected[i]) > 1e-9 {
					t.Errorf("Sample %d: expected %v, got %v", i, tc.expected[i], mono[i])
				}
			}
		})
	}
}

func assertZeroVector(t *testing.T, vec []float64, dim int) {
	t.Helper()
	if len(vec) != dim {
		t.Fatalf("Expected zero vector of length %d, got %d", dim, len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Errorf("Component %d should be 0, got %v", i, v)
		}
	}
}
