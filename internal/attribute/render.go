package attribute

import (
	"fmt"
	"math"
	"strings"
)

// RenderMode selects the transcript layout.
type RenderMode int

const (
	// RenderGrouped emits one header per speaker change and folds
	// consecutive same-speaker segments into a single text block.
	RenderGrouped RenderMode = iota
	// RenderDetailed emits one timestamped line per segment with
	// millisecond precision.
	RenderDetailed
)

// ParseRenderMode maps a config/form value to a RenderMode. Anything
// other than "detailed" falls back to the grouped layout.
func ParseRenderMode(s string) RenderMode {
	if strings.EqualFold(strings.TrimSpace(s), "detailed") {
		return RenderDetailed
	}
	return RenderGrouped
}

// Render converts a labeled timeline into human-readable text. It is a
// pure function: the same input always yields the same output, and an
// empty timeline renders as an empty string.
func Render(segments []LabeledSegment, mode RenderMode) string {
	if mode == RenderDetailed {
		return renderDetailed(segments)
	}
	return renderGrouped(segments)
}

func renderGrouped(segments []LabeledSegment) string {
	var b strings.Builder
	current := ""

	for i, seg := range segments {
		if i == 0 || seg.Speaker != current {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%s [%s]\n", seg.Speaker, FormatClock(seg.Start))
			current = seg.Speaker
		} else {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(seg.Text))
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func renderDetailed(segments []LabeledSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "[%s --> %s] %s: %s\n",
			FormatPrecise(seg.Start), FormatPrecise(seg.End),
			seg.Speaker, strings.TrimSpace(seg.Text))
	}
	return b.String()
}

// FormatClock formats seconds as HH:MM:SS, truncating fractional
// seconds.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatPrecise formats seconds as HH:MM:SS.mmm.
func FormatPrecise(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%06.3f", total/3600, (total%3600)/60, math.Mod(seconds, 60))
}
