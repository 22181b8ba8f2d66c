package attribute

import "fmt"

// TranscriptSegment is a span of recognized speech produced by the
// recognizer. Segments arrive chronologically ordered and
// non-overlapping; that is a recognizer guarantee and is not
// re-validated here.
type TranscriptSegment struct {
	Start float64 // seconds
	End   float64 // seconds, >= Start
	Text  string
}

// DiarizationTurn is a time span attributed to one speaker by the
// diarization engine. Turns may overlap each other (simultaneous
// speech) and need not align with transcript segment boundaries.
type DiarizationTurn struct {
	Start   float64
	End     float64
	Speaker string
}

// LabeledSegment is a transcript segment with a speaker identity
// attached. The label is a cluster label ("SPEAKER 2"), a
// diarizer-native id ("SPEAKER_00"), or UnknownSpeaker.
type LabeledSegment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// UnknownSpeaker labels segments with no diarization coverage. A
// segment the diarizer missed (silence, very short turns) is a normal
// outcome, not an error.
const UnknownSpeaker = "UNKNOWN"

// ClusterLabel maps a zero-based cluster index to its display label.
// Cluster indices are not stable across clustering runs; the label is
// only meaningful within one transcript.
func ClusterLabel(index int) string {
	return fmt.Sprintf("SPEAKER %d", index+1)
}
