package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHubURL is the public model hub.
const DefaultHubURL = "https://huggingface.co"

// HTTPHub checks model ids against the hub's GET /api/models/{id} endpoint.
type HTTPHub struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPHub returns a checker for baseURL (DefaultHubURL when empty).
func NewHTTPHub(baseURL string, timeout time.Duration) *HTTPHub {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultHubURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPHub{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

// Exists returns nil when the hub knows id.
func (h *HTTPHub) Exists(ctx context.Context, id string) error {
	// Model ids contain a "/" that must stay a path separator.
	endpoint, err := url.JoinPath(h.baseURL, append([]string{"api", "models"}, strings.Split(id, "/")...)...)
	if err != nil {
		return fmt.Errorf("hub: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("hub: new request: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hub: http error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("hub: %s does not exist", id)
	default:
		return fmt.Errorf("hub: http %d for %s", resp.StatusCode, id)
	}
}
