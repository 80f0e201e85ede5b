package embedding

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by NewLoader.
const (
	BackendHTTP = "http"
	BackendONNX = "onnx"
	BackendHash = "hash"
)

// LoaderConfig selects and configures the embedding backend.
type LoaderConfig struct {
	Backend        string
	BaseURL        string
	ModelsDir      string
	Dimensions     int
	MaxTokens      int
	TimeoutSeconds int
}

// NewLoader returns a LoadFunc for the configured backend. localPath maps a
// model identifier to a local path for custom models; it may be nil or return "".
func NewLoader(cfg LoaderConfig, localPath func(model string) string) (LoadFunc, error) {
	switch cfg.Backend {
	case BackendHTTP, "":
		return func(ctx context.Context, model string) (Embedder, error) {
			e, err := NewHTTPEmbedder(ctx, HTTPConfig{
				BaseURL:        cfg.BaseURL,
				Model:          model,
				TimeoutSeconds: cfg.TimeoutSeconds,
			})
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	case BackendONNX:
		return func(ctx context.Context, model string) (Embedder, error) {
			path := ""
			if localPath != nil {
				path = localPath(model)
			}
			if path == "" {
				path = filepath.Join(cfg.ModelsDir, filepath.Base(model))
			}
			e, err := NewONNXEmbedder(ONNXConfig{
				ModelPath:  path,
				Dimensions: cfg.Dimensions,
				MaxTokens:  cfg.MaxTokens,
				Lowercase:  true,
			})
			if err != nil {
				return nil, err
			}
			return e, nil
		}, nil
	case BackendHash:
		return func(ctx context.Context, model string) (Embedder, error) {
			return NewHashEmbedder(cfg.Dimensions), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}
