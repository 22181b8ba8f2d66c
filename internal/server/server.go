// Package server exposes the transcription service over HTTP: upload
// endpoints, job status, a websocket event feed, and an optional
// watch folder for dropped recordings.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"

	"github.com/speakerlab/diascribe/internal/attribute"
	"github.com/speakerlab/diascribe/internal/diarizer"
	"github.com/speakerlab/diascribe/internal/jobs"
	"github.com/speakerlab/diascribe/internal/recognizer"
)

type Config struct {
	Host            string
	Port            int
	UploadDir       string
	OutputDir       string
	SaveTranscripts bool
	WatchDir        string // empty disables the watch folder
	Workers         int
	QueueSize       int
	DefaultLanguage string
	DefaultSpeakers int    // 0 = auto
	DefaultFormat   string // grouped | detailed
	UseDiarizer     bool
}

// Deps are the injected collaborators. Recognizer, Merger and Store
// are required; Diarizer only when the diarizer path is enabled.
type Deps struct {
	Recognizer recognizer.Recognizer
	Diarizer   diarizer.Engine
	Merger     *attribute.Merger
	Store      jobs.Store
}

type Server struct {
	config     Config
	deps       Deps
	httpServer *http.Server
	hub        *hub
	queue      chan *jobs.Job
	watcher    *fsnotify.Watcher
	wg         sync.WaitGroup
	shutdown   chan struct{}
}

func New(config Config, deps Deps) (*Server, error) {
	if deps.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	if deps.Merger == nil {
		return nil, fmt.Errorf("merger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("job store is required")
	}
	if config.UseDiarizer && deps.Diarizer == nil {
		return nil, fmt.Errorf("diarizer path enabled but no diarizer configured")
	}

	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 32
	}
	if config.UploadDir == "" {
		config.UploadDir = "uploads"
	}
	if err := os.MkdirAll(config.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if config.SaveTranscripts && config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	return &Server{
		config:   config,
		deps:     deps,
		hub:      newHub(),
		queue:    make(chan *jobs.Job, config.QueueSize),
		shutdown: make(chan struct{}),
	}, nil
}

// Start runs the HTTP listener and blocks until Stop is called.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/transcribe", s.handleTranscribe).Methods("POST")
	router.HandleFunc("/api/jobs", s.handleListJobs).Methods("GET")
	router.HandleFunc("/api/jobs/{jobID}", s.handleGetJob).Methods("GET")
	router.HandleFunc("/api/jobs/{jobID}/transcript", s.handleGetTranscript).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket)

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	if s.config.WatchDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		s.watcher = watcher
		s.wg.Add(1)
		go s.watchRecordings()
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: router}

	log.Printf("Transcription server listening on %s", addr)
	log.Printf("Attribution mode: %s", s.defaultMode())

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	close(s.shutdown)
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
	s.wg.Wait()
	s.hub.closeAll()
}

func (s *Server) defaultMode() string {
	if s.config.UseDiarizer {
		return "diarizer"
	}
	return "clustering"
}

// enqueue stores the job and hands it to the worker pool.
func (s *Server) enqueue(ctx context.Context, job *jobs.Job) error {
	if err := s.deps.Store.Put(ctx, job); err != nil {
		return err
	}
	select {
	case s.queue <- job:
		s.hub.broadcast(event{Type: "job", JobID: job.ID, Status: string(job.Status)})
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}
