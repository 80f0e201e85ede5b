// Package embedding maps sentences to fixed-length vectors. Backends are an
// Ollama-compatible HTTP service, a local ONNX model (cgo builds only) and a
// deterministic hash embedder for tests and offline use.
//
// Every Embedder in this package is safe for concurrent use.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// LoadFunc loads the embedder for a model identifier.
type LoadFunc func(ctx context.Context, model string) (Embedder, error)

// embedEach implements EmbedBatch on top of Embed.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
