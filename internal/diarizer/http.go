package diarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/speakerlab/diascribe/internal/attribute"
)

// HTTPEngine talks to a pyannote-style diarization server: multipart
// upload in, speaker turns out.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Minute},
	}
}

type diarizeResponse struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

func (e *HTTPEngine) Diarize(ctx context.Context, audioPath string) ([]attribute.DiarizationTurn, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarize %s: %w", filepath.Base(audioPath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("diarize %s: %s: %s",
			filepath.Base(audioPath), resp.Status, strings.TrimSpace(string(msg)))
	}

	var parsed diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("diarize %s: decode response: %w", filepath.Base(audioPath), err)
	}

	turns := make([]attribute.DiarizationTurn, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		turns = append(turns, attribute.DiarizationTurn{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: seg.Speaker,
		})
	}
	return turns, nil
}
