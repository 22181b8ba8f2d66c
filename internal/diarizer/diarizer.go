package diarizer

import (
	"context"

	"github.com/speakerlab/diascribe/internal/attribute"
)

// Engine is the common interface for speaker diarization providers.
// Turns may overlap and are not guaranteed to be ordered.
type Engine interface {
	Diarize(ctx context.Context, audioPath string) ([]attribute.DiarizationTurn, error)
}
