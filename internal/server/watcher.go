package server

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/speakerlab/diascribe/internal/jobs"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".flac": true,
}

// watchRecordings queues a transcription job for every audio file
// created in the watch directory.
func (s *Server) watchRecordings() {
	defer s.wg.Done()

	if err := s.watcher.Add(s.config.WatchDir); err != nil {
		log.Printf("Failed to watch recordings directory %s: %v", s.config.WatchDir, err)
		return
	}
	log.Printf("Watching recordings directory %s", s.config.WatchDir)

	for {
		select {
		case <-s.shutdown:
			return

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if err := s.handleFSEvent(ev); err != nil {
				log.Printf("Failed to handle file event %s: %v", ev.Name, err)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (s *Server) handleFSEvent(ev fsnotify.Event) error {
	if ev.Op != fsnotify.Create {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	if !audioExtensions[ext] || strings.HasSuffix(ev.Name, ".tmp") {
		return nil
	}
	if info, err := os.Stat(ev.Name); err != nil || info.IsDir() {
		return nil
	}

	now := time.Now()
	job := &jobs.Job{
		ID:        uuid.New().String(),
		Filename:  filepath.Base(ev.Name),
		AudioPath: ev.Name,
		Status:    jobs.StatusQueued,
		Options: jobs.Options{
			Language:    s.config.DefaultLanguage,
			NumSpeakers: s.config.DefaultSpeakers,
			UseDiarizer: s.config.UseDiarizer,
			Format:      s.config.DefaultFormat,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.enqueue(context.Background(), job); err != nil {
		return err
	}
	log.Printf("Queued job %s for watched file %s", job.ID, job.Filename)
	return nil
}
