package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultDim is the output dimensionality of the ECAPA voice encoder.
const DefaultDim = 192

// HTTPEncoder calls a voice embedding server (speechbrain ECAPA behind
// a small HTTP wrapper) with mono samples and reads back one vector.
type HTTPEncoder struct {
	baseURL string
	dim     int
	client  *http.Client
}

func NewHTTPEncoder(baseURL string, dim int) *HTTPEncoder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HTTPEncoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *HTTPEncoder) Dim() int { return e.dim }

type encodeRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

type encodeResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *HTTPEncoder) Encode(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	body, err := json.Marshal(encodeRequest{Samples: samples, SampleRate: sampleRate})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding server %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return out.Embedding, nil
}
