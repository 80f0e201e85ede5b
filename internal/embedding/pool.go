package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Pool keeps at most one live embedder per model identifier. Loads are
// serialized; a failed load is not remembered, so the next call retries it.
type Pool struct {
	load      LoadFunc
	cacheSize int
	logger    *zap.Logger

	mu     sync.Mutex
	models map[string]Embedder
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(logger *zap.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCacheSize wraps each loaded embedder in a CachedEmbedder of n entries. Zero disables caching.
func WithCacheSize(n int) PoolOption {
	return func(p *Pool) { p.cacheSize = n }
}

// NewPool creates a pool that loads models with load.
func NewPool(load LoadFunc, opts ...PoolOption) *Pool {
	p := &Pool{
		load:   load,
		logger: zap.NewNop(),
		models: make(map[string]Embedder),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the embedder for model, loading it on first use.
func (p *Pool) Load(ctx context.Context, model string) (Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.models[model]; ok {
		return e, nil
	}
	start := time.Now()
	e, err := p.load(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", model, err)
	}
	if p.cacheSize > 0 {
		e = NewCachedEmbedder(e, p.cacheSize)
	}
	p.models[model] = e
	p.logger.Info("embedding model loaded",
		zap.String("model", model),
		zap.Int("dimensions", e.Dimensions()),
		zap.Duration("elapsed", time.Since(start)))
	return e, nil
}

// Loaded returns the identifiers of the live models, sorted.
func (p *Pool) Loaded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.models))
	for id := range p.models {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Evict closes and forgets the embedder for model, if loaded.
func (p *Pool) Evict(model string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.models[model]
	if !ok {
		return nil
	}
	delete(p.models, model)
	return e.Close()
}

// Close closes every live embedder.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	for id, e := range p.models {
		err = multierr.Append(err, e.Close())
		delete(p.models, id)
	}
	return err
}
