package attribute

import (
	"strings"
	"testing"
)

func TestRenderGroupedFoldsSameSpeaker(t *testing.T) {
	segments := []LabeledSegment{
		{Start: 0, End: 5, Text: "hi", Speaker: "A"},
		{Start: 5, End: 8, Text: "there", Speaker: "A"},
		{Start: 8, End: 12, Text: "you", Speaker: "B"},
	}

	out := Render(segments, RenderGrouped)

	if got := strings.Count(out, "A ["); got != 1 {
		t.Errorf("Expected exactly one header for A, got %d in %q", got, out)
	}
	if got := strings.Count(out, "B ["); got != 1 {
		t.Errorf("Expected exactly one header for B, got %d in %q", got, out)
	}
	if !strings.Contains(out, "hi there") {
		t.Errorf("Expected A's segments folded into 'hi there', got %q", out)
	}
	if !strings.Contains(out, "you") {
		t.Errorf("Expected B's text present, got %q", out)
	}
	if strings.Index(out, "A [") > strings.Index(out, "B [") {
		t.Errorf("Expected A's block before B's block, got %q", out)
	}
}

func TestRenderGroupedReopensHeaderOnSpeakerReturn(t *testing.T) {
	segments := []LabeledSegment{
		{Start: 0, End: 2, Text: "one", Speaker: "A"},
		{Start: 2, End: 4, Text: "two", Speaker: "B"},
		{Start: 4, End: 6, Text: "three", Speaker: "A"},
	}

	out := Render(segments, RenderGrouped)
	if got := strings.Count(out, "A ["); got != 2 {
		t.Errorf("Expected a new header when A returns, got %d headers in %q", got, out)
	}
}

func TestRenderTrimsSegmentText(t *testing.T) {
	segments := []LabeledSegment{
		{Start: 0, End: 2, Text: "  padded  ", Speaker: "A"},
		{Start: 2, End: 4, Text: " more ", Speaker: "A"},
	}

	out := Render(segments, RenderGrouped)
	if !strings.Contains(out, "padded more") {
		t.Errorf("Expected trimmed text 'padded more', got %q", out)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	for _, mode := range []RenderMode{RenderGrouped, RenderDetailed} {
		if out := Render(nil, mode); out != "" {
			t.Errorf("Expected empty string for empty input, got %q", out)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	segments := []LabeledSegment{
		{Start: 0, End: 5, Text: "hello", Speaker: "SPEAKER 1"},
		{Start: 5, End: 9.5, Text: "world", Speaker: "SPEAKER 2"},
		{Start: 9.5, End: 12, Text: "again", Speaker: "SPEAKER 1"},
	}

	for _, mode := range []RenderMode{RenderGrouped, RenderDetailed} {
		first := Render(segments, mode)
		second := Render(segments, mode)
		if first != second {
			t.Errorf("Render is not idempotent for mode %v", mode)
		}
	}
}

func TestRenderDetailedLineFormat(t *testing.T) {
	segments := []LabeledSegment{
		{Start: 0, End: 5.5, Text: " hello ", Speaker: "SPEAKER 1"},
	}

	out := Render(segments, RenderDetailed)
	expected := "[00:00:00.000 --> 00:00:05.500] SPEAKER 1: hello\n"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestFormatClock(t *testing.T) {
	testCases := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"}, // truncates, never rounds up
		{61, "00:01:01"},
		{3600, "01:00:00"},
		{3723.4, "01:02:03"},
		{-5, "00:00:00"},
	}

	for _, tc := range testCases {
		if got := FormatClock(tc.seconds); got != tc.expected {
			t.Errorf("FormatClock(%v): expected %s, got %s", tc.seconds, tc.expected, got)
		}
	}
}

func TestFormatPrecise(t *testing.T) {
	testCases := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00.000"},
		{5.5, "00:00:05.500"},
		{3723.25, "01:02:03.250"},
	}

	for _, tc := range testCases {
		if got := FormatPrecise(tc.seconds); got != tc.expected {
			t.Errorf("FormatPrecise(%v): expected %s, got %s", tc.seconds, tc.expected, got)
		}
	}
}
