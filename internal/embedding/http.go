package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// ErrModelNotFound is returned when the embedding service does not know the model.
var ErrModelNotFound = errors.New("embedding model not found")

// HTTPConfig holds the settings for an HTTP embedding service.
type HTTPConfig struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// HTTPEmbedder calls an Ollama-compatible POST /api/embed endpoint.
type HTTPEmbedder struct {
	cfg        HTTPConfig
	httpClient *http.Client
	dimensions int
}

// HTTPOption customizes an HTTPEmbedder.
type HTTPOption func(*HTTPEmbedder)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(e *HTTPEmbedder) {
		if client != nil {
			e.httpClient = client
		}
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// NewHTTPEmbedder connects to the service and embeds a sample string to learn the
// model's dimension. An unknown model fails here rather than on first use.
func NewHTTPEmbedder(ctx context.Context, cfg HTTPConfig, opts ...HTTPOption) (*HTTPEmbedder, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding service base url required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model required")
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	e := &HTTPEmbedder{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(e)
	}

	sample, err := e.request(ctx, []string{"dimension check"})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.Model, err)
	}
	if len(sample) != 1 || len(sample[0]) == 0 {
		return nil, fmt.Errorf("load %s: service returned no embedding", cfg.Model)
	}
	e.dimensions = len(sample[0])
	return e, nil
}

// Embed returns the embedding for text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch sends all texts in one request.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out, err := e.request(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("embed: got %d embeddings for %d texts", len(out), len(texts))
	}
	for i, emb := range out {
		if len(emb) != e.dimensions {
			return nil, fmt.Errorf("embed: embedding %d has %d dimensions, want %d", i, len(emb), e.dimensions)
		}
	}
	return out, nil
}

// Dimensions returns the embedding dimension discovered at load time.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the service owns the model.
func (e *HTTPEmbedder) Close() error {
	return nil
}

func (e *HTTPEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	endpoint, err := url.JoinPath(e.cfg.BaseURL, "api", "embed")
	if err != nil {
		return nil, fmt.Errorf("embed: build url: %w", err)
	}
	body, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: http error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: read body: %w", err)
	}

	var parsed embedResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, errorMessage(parsed.Error, raw))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("embed: http %d: %s", resp.StatusCode, errorMessage(parsed.Error, raw))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("embed: decode response: %w", decodeErr)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("embed: service error: %s", parsed.Error)
	}
	return parsed.Embeddings, nil
}

func errorMessage(msg string, raw []byte) string {
	if msg != "" {
		return msg
	}
	return strings.TrimSpace(string(raw))
}
