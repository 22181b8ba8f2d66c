// Package embedding turns transcript segment time spans into
// fixed-length voice embedding vectors.
package embedding

import (
	"context"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"sync"
)

// Span is the time interval of one transcript segment.
type Span struct {
	Start float64
	End   float64
}

// Waveform is a cropped interval of audio, one sample slice per
// channel.
type Waveform struct {
	Samples    [][]float64
	SampleRate int
}

// Cropper reads the waveform for a time interval of an audio file.
type Cropper interface {
	Crop(audioPath string, start, end float64) (*Waveform, error)
}

// Encoder turns a mono waveform into a fixed-length voice embedding.
type Encoder interface {
	Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error)
	Dim() int
}

// Result is the outcome of embedding one span. A failed extraction
// still carries an all-zero vector of the encoder's dimensionality so
// batch clustering can proceed; callers must check Failed before
// treating the vector as a genuine embedding.
type Result struct {
	Vector []float64
	Err    error
}

// Failed reports whether the vector is a degraded zero placeholder.
func (r Result) Failed() bool { return r.Err != nil }

// Service computes voice embeddings with defined per-segment
// degradation: one bad segment never aborts a batch.
type Service struct {
	cropper Cropper
	encoder Encoder
	workers int
}

// NewService builds a Service. workers bounds concurrent encoder
// calls; use 1 when the encoder owns an exclusive accelerator context.
func NewService(cropper Cropper, encoder Encoder, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{cropper: cropper, encoder: encoder, workers: workers}
}

// Embed computes the voice embedding for one span. The span end is
// clamped to the audio duration before cropping; multi-channel audio
// is mixed down to mono by averaging channels. Failures are logged and
// absorbed into a zero-vector Result.
func (s *Service) Embed(ctx context.Context, audioPath string, span Span, audioDuration float64) Result {
	end := span.End
	if end > audioDuration {
		end = audioDuration
	}
	if end <= span.Start {
		return s.failure(span, fmt.Errorf("degenerate interval"))
	}

	wave, err := s.cropper.Crop(audioPath, span.Start, end)
	if err != nil {
		return s.failure(span, fmt.Errorf("crop %s: %w", filepath.Base(audioPath), err))
	}

	mono := Mixdown(wave)
	if len(mono) == 0 {
		return s.failure(span, fmt.Errorf("empty waveform"))
	}

	vec, err := s.encoder.Encode(ctx, mono, wave.SampleRate)
	if err != nil {
		return s.failure(span, fmt.Errorf("encode: %w", err))
	}
	if len(vec) != s.encoder.Dim() {
		return s.failure(span, fmt.Errorf("encoder returned %d components, want %d", len(vec), s.encoder.Dim()))
	}
	return Result{Vector: vec}
}

// EmbedAll embeds every span on a bounded worker pool and sanitizes
// non-finite components before returning. Results keep span order.
func (s *Service) EmbedAll(ctx context.Context, audioPath string, spans []Span, audioDuration float64) []Result {
	results := make([]Result, len(spans))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, span := range spans {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, span Span) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.Embed(ctx, audioPath, span, audioDuration)
		}(i, span)
	}
	wg.Wait()

	Sanitize(results)
	return results
}

func (s *Service) failure(span Span, err error) Result {
	log.Printf("Embedding failed for segment %.3f-%.3f, using zero vector: %v", span.Start, span.End, err)
	return Result{Vector: make([]float64, s.encoder.Dim()), Err: err}
}

// Mixdown averages a waveform's channels into one mono channel.
func Mixdown(w *Waveform) []float64 {
	if len(w.Samples) == 0 {
		return nil
	}
	if len(w.Samples) == 1 {
		return w.Samples[0]
	}

	mono := make([]float64, len(w.Samples[0]))
	for _, channel := range w.Samples {
		for i, v := range channel {
			if i < len(mono) {
				mono[i] += v
			}
		}
	}
	for i := range mono {
		mono[i] /= float64(len(w.Samples))
	}
	return mono
}

// Sanitize zeroes NaN and Inf components in place so downstream
// clustering stays numerically stable.
func Sanitize(results []Result) {
	for _, r := range results {
		for i, v := range r.Vector {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				r.Vector[i] = 0
			}
		}
	}
}
