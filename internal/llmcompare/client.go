// Package llmcompare asks a generative model, served by Ollama, which
// statements one text has that the other lacks. It is best effort: every
// failure yields an unsuccessful result with empty lists.
package llmcompare

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "deepseek-r1:latest"
	defaultTimeout = 120 * time.Second
)

//go:embed prompts/*.txt
var promptFS embed.FS

var thinkSection = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Config captures the settings needed to reach the model server.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client runs the two-pass comparison against an Ollama server.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the generative model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Compare runs both passes and merges their answers. It does not return an
// error; a failed pass leaves Success false and both lists empty.
func (c *Client) Compare(ctx context.Context, textA, textB string) *models.LLMComparison {
	result := &models.LLMComparison{
		MissingInfo: []string{},
		ExtraInfo:   []string{},
		Model:       c.cfg.Model,
	}
	merged := map[string]json.RawMessage{}
	for _, pass := range []string{"first_pass.txt", "second_pass.txt"} {
		answer, err := c.runPass(ctx, pass, textA, textB)
		if err != nil {
			c.logger.Warn("llm comparison failed", zap.String("pass", pass), zap.Error(err))
			result.Error = err.Error()
			return result
		}
		for k, v := range answer {
			merged[k] = v
		}
	}

	missing, err := stringList(merged, "missing_info")
	if err != nil {
		return c.fail(result, err)
	}
	extra, err := stringList(merged, "extra_info")
	if err != nil {
		return c.fail(result, err)
	}
	result.MissingInfo, result.ExtraInfo = missing, extra
	result.Success = true
	return result
}

func (c *Client) fail(result *models.LLMComparison, err error) *models.LLMComparison {
	c.logger.Warn("llm comparison answer has unexpected shape", zap.Error(err))
	result.Error = err.Error()
	return result
}

func (c *Client) runPass(ctx context.Context, pass, textA, textB string) (map[string]json.RawMessage, error) {
	prompt, err := buildPrompt(pass, textA, textB)
	if err != nil {
		return nil, err
	}
	response, err := c.Generate(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	var answer map[string]json.RawMessage
	if err := DecodeLLMJSON(StripThinking(response), &answer); err != nil {
		return nil, fmt.Errorf("%s: parse answer: %w", pass, err)
	}
	return answer, nil
}

// buildPrompt places the instructions after both texts so they are the last
// thing the model reads.
func buildPrompt(pass, textA, textB string) (string, error) {
	instructions, err := promptFS.ReadFile("prompts/" + pass)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", pass, err)
	}
	return fmt.Sprintf("Given Input:\nText A: %q\n\n---------------------------\nText B: %q\n\n%s",
		textA, textB, instructions), nil
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// StripThinking removes <think> sections that reasoning models put before
// their answer.
func StripThinking(answer string) string {
	return strings.TrimSpace(thinkSection.ReplaceAllString(answer, ""))
}

// Generate sends one non-streaming prompt to /api/generate and returns the
// raw answer. An empty model means the configured one.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.cfg.Model
	}
	encoded, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}

	var parsed generateResponse
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = summarizePayloadSnippet(string(body))
		}
		return "", fmt.Errorf("llm request: http %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("llm request: decode response: %w", decodeErr)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("llm request: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", errors.New("llm request: empty response")
	}
	return parsed.Response, nil
}

// stringList reads key from the merged answer. A missing key is an empty list.
func stringList(answer map[string]json.RawMessage, key string) ([]string, error) {
	raw, ok := answer[key]
	if !ok || string(raw) == "null" {
		return []string{}, nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: expected a list: %w", key, err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		default:
			b, _ := json.Marshal(v)
			out = append(out, string(b))
		}
	}
	return out, nil
}
