package recognizer

import (
	"context"

	"github.com/speakerlab/diascribe/internal/attribute"
)

// Result is a completed recognition pass over one audio file.
// Segments are chronologically ordered and non-overlapping.
type Result struct {
	Language string
	Text     string
	Segments []attribute.TranscriptSegment
}

// Recognizer is the common interface for speech recognition providers.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}
