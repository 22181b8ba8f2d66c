package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/speakerlab/diascribe/internal/attribute"
)

// WhisperClient talks to a Whisper ASR server over HTTP. The server
// takes a multipart file upload and returns timestamped segments.
type WhisperClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewWhisperClient(baseURL, model string) *WhisperClient {
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Minute},
	}
}

type whisperResponse struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and returns the recognized
// segments. An empty language requests automatic detection.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}
	defer f.Close()
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}

	query := url.Values{}
	if language != "" {
		query.Set("language", language)
	}
	if c.model != "" {
		query.Set("model", c.model)
	}
	endpoint := c.baseURL + "/transcribe"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: %w", filepath.Base(audioPath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("whisper transcribe %s: %s: %s",
			filepath.Base(audioPath), resp.Status, strings.TrimSpace(string(msg)))
	}

	var parsed whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("whisper transcribe %s: decode response: %w", filepath.Base(audioPath), err)
	}

	result := &Result{Language: parsed.Language, Text: strings.TrimSpace(parsed.Text)}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, attribute.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return result, nil
}
