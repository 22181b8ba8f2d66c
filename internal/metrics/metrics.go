package metrics

import (
	"fmt"
	"sync"
	"time"
)

// JobMetrics collects timing and output statistics for one
// transcription job.
type JobMetrics struct {
	JobID         string
	Mode          string // "diarizer" or "clustering"
	StartTime     time.Time
	EndTime       time.Time
	AudioDuration float64 // seconds
	SegmentCount  int
	SpeakerCount  int
	mu            sync.Mutex
}

func NewJobMetrics(jobID, mode string) *JobMetrics {
	return &JobMetrics{
		JobID:     jobID,
		Mode:      mode,
		StartTime: time.Now(),
	}
}

func (m *JobMetrics) SetAudioDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioDuration = seconds
}

func (m *JobMetrics) SetSegmentCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SegmentCount = n
}

func (m *JobMetrics) SetSpeakerCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SpeakerCount = n
}

func (m *JobMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

func (m *JobMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	rtf := 0.0
	if m.AudioDuration > 0 {
		rtf = duration.Seconds() / m.AudioDuration
	}

	return fmt.Sprintf(
		"Job: %s\n"+
			"Mode: %s\n"+
			"Processing Time: %v\n"+
			"Audio Duration: %.2f seconds\n"+
			"Segments: %d\n"+
			"Speakers: %d\n"+
			"Real-time Factor: %.2fx\n",
		m.JobID,
		m.Mode,
		duration,
		m.AudioDuration,
		m.SegmentCount,
		m.SpeakerCount,
		rtf,
	)
}
