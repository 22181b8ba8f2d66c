package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/speakerlab/diascribe/internal/jobs"
)

// maxUploadBytes bounds in-memory multipart parsing; larger bodies
// spill to temp files.
const maxUploadBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "diascribe API is running",
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file field 'file'")
		return
	}
	defer file.Close()

	options, err := s.parseOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Unique filename to avoid collisions between uploads.
	id := uuid.New().String()
	savedPath := filepath.Join(s.config.UploadDir, fmt.Sprintf("%s_%s", id, filepath.Base(header.Filename)))
	out, err := os.Create(savedPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save upload: %v", err))
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(savedPath)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save upload: %v", err))
		return
	}
	out.Close()

	now := time.Now()
	job := &jobs.Job{
		ID:        id,
		Filename:  header.Filename,
		AudioPath: savedPath,
		Status:    jobs.StatusQueued,
		Options:   options,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.enqueue(r.Context(), job); err != nil {
		os.Remove(savedPath)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	log.Printf("Queued job %s for %s", job.ID, job.Filename)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (s *Server) parseOptions(r *http.Request) (jobs.Options, error) {
	options := jobs.Options{
		Language:    s.config.DefaultLanguage,
		NumSpeakers: s.config.DefaultSpeakers,
		UseDiarizer: s.config.UseDiarizer,
		Format:      s.config.DefaultFormat,
	}

	if v := r.FormValue("language"); v != "" {
		options.Language = v
	}
	if v := r.FormValue("format"); v != "" {
		options.Format = v
	}
	if v := r.FormValue("num_speakers"); v != "" {
		if strings.EqualFold(v, "auto") {
			options.NumSpeakers = 0
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return options, fmt.Errorf("invalid num_speakers %q", v)
			}
			options.NumSpeakers = n
		}
	}
	if v := r.FormValue("diarize"); v != "" {
		use, err := strconv.ParseBool(v)
		if err != nil {
			return options, fmt.Errorf("invalid diarize value %q", v)
		}
		if use && s.deps.Diarizer == nil {
			return options, fmt.Errorf("no diarizer configured")
		}
		options.UseDiarizer = use
	}
	return options, nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	job, err := s.deps.Store.Get(r.Context(), jobID)
	if err == jobs.ErrNotFound {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]
	job, err := s.deps.Store.Get(r.Context(), jobID)
	if err == jobs.ErrNotFound {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job.Status != jobs.StatusCompleted {
		writeError(w, http.StatusConflict, fmt.Sprintf("job is %s", job.Status))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, job.Transcript)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": list})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
