package embedding

import (
	"context"
	"hash/fnv"

	"github.com/hyperjump/awase/pkg/utils"
)

// HashEmbedder is a deterministic embedder. The vector is derived from a hash of
// the exact text, so equal strings always get equal (unit length) embeddings and
// different strings get nearly orthogonal ones. It carries no semantics.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns a unit vector seeded by the FNV-1a hash of text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	emb := make([]float32, e.dimensions)
	for i := range emb {
		// Top 24 bits mapped to [-1, 1).
		v := splitmix64(&state)
		emb[i] = float32(int64(v>>40)-(1<<23)) / float32(1<<23)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
