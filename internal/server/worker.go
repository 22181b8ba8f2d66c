package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/speakerlab/diascribe/internal/attribute"
	"github.com/speakerlab/diascribe/internal/jobs"
	"github.com/speakerlab/diascribe/internal/media"
	"github.com/speakerlab/diascribe/internal/metrics"
)

func (s *Server) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.shutdown:
			return
		case job := <-s.queue:
			if err := s.processJob(job); err != nil {
				log.Printf("Job %s failed: %v", job.ID, err)
				s.finishJob(job, jobs.StatusFailed, "", err)
			}
		}
	}
}

// processJob runs one request end to end: convert, transcribe,
// attribute speakers, render, persist. Upstream collaborator failures
// abort the whole job; there is no partial transcript to save.
func (s *Server) processJob(job *jobs.Job) error {
	ctx := context.Background()

	mode := "clustering"
	if job.Options.UseDiarizer {
		mode = "diarizer"
	}
	m := metrics.NewJobMetrics(job.ID, mode)

	job.Status = jobs.StatusProcessing
	job.UpdatedAt = time.Now()
	if err := s.deps.Store.Put(ctx, job); err != nil {
		return err
	}
	s.hub.broadcast(event{Type: "job", JobID: job.ID, Status: string(job.Status)})

	wavPath, err := media.EnsureWAV(ctx, job.AudioPath, s.config.UploadDir)
	if err != nil {
		return err
	}
	duration, err := media.Duration(wavPath)
	if err != nil {
		return err
	}
	m.SetAudioDuration(duration)

	result, err := s.deps.Recognizer.Transcribe(ctx, wavPath, job.Options.Language)
	if err != nil {
		return err
	}
	if len(result.Segments) == 0 {
		return fmt.Errorf("no speech detected in %s", job.Filename)
	}
	m.SetSegmentCount(len(result.Segments))

	var labeled []attribute.LabeledSegment
	if job.Options.UseDiarizer {
		turns, err := s.deps.Diarizer.Diarize(ctx, wavPath)
		if err != nil {
			return err
		}
		labeled = attribute.MergeWithDiarization(result.Segments, turns)
	} else {
		labeled, err = s.deps.Merger.MergeWithClustering(ctx, result.Segments, wavPath, duration, job.Options.NumSpeakers)
		if err != nil {
			return err
		}
	}

	speakers := make(map[string]struct{})
	for _, seg := range labeled {
		speakers[seg.Speaker] = struct{}{}
	}
	m.SetSpeakerCount(len(speakers))

	transcript := attribute.Render(labeled, attribute.ParseRenderMode(job.Options.Format))

	if s.config.SaveTranscripts && s.config.OutputDir != "" {
		path := filepath.Join(s.config.OutputDir, job.ID+".txt")
		if err := os.WriteFile(path, []byte(transcript), 0644); err != nil {
			log.Printf("Warning: failed to save transcript for job %s: %v", job.ID, err)
		}
	}

	s.finishJob(job, jobs.StatusCompleted, transcript, nil)

	m.Finalize()
	log.Printf("Job %s completed:\n%s", job.ID, m.Summary())
	return nil
}

func (s *Server) finishJob(job *jobs.Job, status jobs.Status, transcript string, cause error) {
	job.Status = status
	job.Transcript = transcript
	if cause != nil {
		job.Error = cause.Error()
	}
	job.UpdatedAt = time.Now()

	if err := s.deps.Store.Put(context.Background(), job); err != nil {
		log.Printf("Warning: failed to store job %s: %v", job.ID, err)
	}

	ev := event{Type: "job", JobID: job.ID, Status: string(status)}
	if cause != nil {
		ev.Error = cause.Error()
	}
	s.hub.broadcast(ev)
}
