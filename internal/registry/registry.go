// Package registry keeps the known comparison and translation models, which
// one of each kind is selected, and persists both through storage.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
)

var (
	// ErrModelNotFound is returned for names that are not registered.
	ErrModelNotFound = errors.New("model not found")
	// ErrModelUnavailable is returned when an import target cannot be verified.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidKind is returned for kinds other than comparison and translation.
	ErrInvalidKind = errors.New("invalid model kind")
)

// DefaultComparisonModels are registered on first use.
var DefaultComparisonModels = []string{
	"sentence-transformers/LaBSE",
	"xlm-roberta-base",
	"multi-qa-distilbert-cos-v1",
	"multi-qa-MiniLM-L6-cos-v1",
	"multi-qa-mpnet-base-cos-v1",
}

// HubChecker verifies that a model id exists on the model hub.
type HubChecker interface {
	Exists(ctx context.Context, id string) error
}

// Registry is an in-memory view of the registered models backed by storage.
// Lookups are map based; all methods are safe for concurrent use.
type Registry struct {
	store  storage.Storage
	hub    HubChecker
	logger *zap.Logger
	// fallback is the comparison model used when nothing is selected.
	fallback string

	mu       sync.RWMutex
	entries  map[models.ModelKind]map[string]*models.ModelEntry
	selected map[models.ModelKind]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHubChecker sets the checker used by hub imports.
func WithHubChecker(hub HubChecker) Option {
	return func(r *Registry) { r.hub = hub }
}

// WithDefaultModel sets the comparison model used when nothing is selected.
func WithDefaultModel(name string) Option {
	return func(r *Registry) {
		if name != "" {
			r.fallback = name
		}
	}
}

// New loads the registry from store. An empty store is seeded with
// DefaultComparisonModels and the default model selected.
func New(ctx context.Context, store storage.Storage, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:    store,
		logger:   zap.NewNop(),
		fallback: models.DefaultModel,
		entries: map[models.ModelKind]map[string]*models.ModelEntry{
			models.KindComparison:  {},
			models.KindTranslation: {},
		},
		selected: map[models.ModelKind]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	if len(r.entries[models.KindComparison]) == 0 {
		if err := r.seed(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	for kind := range r.entries {
		list, err := r.store.ListModels(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to load %s models: %w", kind, err)
		}
		for _, e := range list {
			r.entries[kind][e.Name] = e
		}
		sel, err := r.store.GetSelection(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to load %s selection: %w", kind, err)
		}
		if sel != "" {
			r.selected[kind] = sel
		}
	}
	return nil
}

func (r *Registry) seed(ctx context.Context) error {
	now := time.Now().UTC()
	for i, name := range DefaultComparisonModels {
		e := &models.ModelEntry{
			Name:    name,
			Kind:    models.KindComparison,
			Source:  models.SourceHub,
			AddedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := r.store.SaveModel(ctx, e); err != nil {
			return err
		}
		r.entries[models.KindComparison][name] = e
	}
	if _, ok := r.entries[models.KindComparison][r.fallback]; ok {
		if err := r.store.SetSelection(ctx, models.KindComparison, r.fallback); err != nil {
			return err
		}
		r.selected[models.KindComparison] = r.fallback
	}
	r.logger.Info("model registry seeded", zap.Int("models", len(DefaultComparisonModels)))
	return nil
}

// List returns the models of kind, sorted by the time they were added.
func (r *Registry) List(kind models.ModelKind) []models.ModelEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ModelEntry, 0, len(r.entries[kind]))
	for _, e := range r.entries[kind] {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

// Selected returns the selected model of kind, or "" if none.
func (r *Registry) Selected(kind models.ModelKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected[kind]
}

// Lookup returns the entry for name. Custom models may also be looked up by
// their full path.
func (r *Registry) Lookup(kind models.ModelKind, name string) (models.ModelEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[kind][name]; ok {
		return *e, true
	}
	if e, ok := r.entries[kind][filepath.Base(name)]; ok && e.Source == models.SourceCustom && e.Path == name {
		return *e, true
	}
	return models.ModelEntry{}, false
}

// Select makes name the selected model of kind.
func (r *Registry) Select(ctx context.Context, kind models.ModelKind, name string) error {
	if err := r.checkKind(kind); err != nil {
		return err
	}
	e, ok := r.Lookup(kind, name)
	if !ok {
		return fmt.Errorf("%s model %q: %w", kind, name, ErrModelNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.SetSelection(ctx, kind, e.Name); err != nil {
		return fmt.Errorf("failed to persist selection: %w", err)
	}
	r.selected[kind] = e.Name
	r.logger.Info("model selected", zap.String("kind", string(kind)), zap.String("model", e.Name))
	return nil
}

// Import registers a model. With fromHub the identifier is verified against the
// model hub; otherwise model is a local path and is registered under its base
// name. Importing a known model is a no-op that returns the existing entry.
func (r *Registry) Import(ctx context.Context, kind models.ModelKind, model string, fromHub bool) (models.ModelEntry, error) {
	if err := r.checkKind(kind); err != nil {
		return models.ModelEntry{}, err
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return models.ModelEntry{}, fmt.Errorf("model name required: %w", ErrModelUnavailable)
	}
	entry := models.ModelEntry{Name: model, Kind: kind, Source: models.SourceHub}
	if !fromHub {
		abs, err := filepath.Abs(model)
		if err != nil {
			return models.ModelEntry{}, fmt.Errorf("invalid model path %q: %w", model, err)
		}
		entry = models.ModelEntry{Name: filepath.Base(abs), Kind: kind, Source: models.SourceCustom, Path: abs}
	}
	if existing, ok := r.Lookup(kind, entry.Name); ok {
		return existing, nil
	}

	if fromHub {
		if r.hub == nil {
			return models.ModelEntry{}, fmt.Errorf("no model hub configured: %w", ErrModelUnavailable)
		}
		if err := r.hub.Exists(ctx, model); err != nil {
			if !strings.Contains(model, "/") {
				r.logger.Warn("model not found on hub; sentence-transformers models need the sentence-transformers/ prefix",
					zap.String("model", model))
			}
			return models.ModelEntry{}, fmt.Errorf("%s: %w", model, errors.Join(ErrModelUnavailable, err))
		}
	} else if _, err := os.Stat(entry.Path); err != nil {
		return models.ModelEntry{}, fmt.Errorf("%s: %w", entry.Path, errors.Join(ErrModelUnavailable, err))
	}

	entry.AddedAt = time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.SaveModel(ctx, &entry); err != nil {
		return models.ModelEntry{}, err
	}
	saved := entry
	r.entries[kind][entry.Name] = &saved
	r.logger.Info("model imported",
		zap.String("kind", string(kind)), zap.String("model", entry.Name), zap.String("source", string(entry.Source)))
	return entry, nil
}

// Delete unregisters a model. Deleting the selected model clears the selection.
func (r *Registry) Delete(ctx context.Context, kind models.ModelKind, name string) error {
	if err := r.checkKind(kind); err != nil {
		return err
	}
	e, ok := r.Lookup(kind, name)
	if !ok {
		return fmt.Errorf("%s model %q: %w", kind, name, ErrModelNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.DeleteModel(ctx, kind, e.Name); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	delete(r.entries[kind], e.Name)
	if r.selected[kind] == e.Name {
		delete(r.selected, kind)
	}
	r.logger.Info("model deleted", zap.String("kind", string(kind)), zap.String("model", e.Name))
	return nil
}

// ResolveModel picks the comparison model for a request: the requested name,
// else the selected model, else the configured default.
func (r *Registry) ResolveModel(requested string) string {
	if requested != "" {
		return requested
	}
	if sel := r.Selected(models.KindComparison); sel != "" {
		return sel
	}
	return r.fallback
}

// LocalPath returns the filesystem path of a custom comparison model, or "".
func (r *Registry) LocalPath(name string) string {
	if e, ok := r.Lookup(models.KindComparison, name); ok && e.Source == models.SourceCustom {
		return e.Path
	}
	return ""
}

// Known reports whether name is a registered comparison model.
func (r *Registry) Known(name string) bool {
	_, ok := r.Lookup(models.KindComparison, name)
	return ok
}

func (r *Registry) checkKind(kind models.ModelKind) error {
	if _, ok := r.entries[kind]; !ok {
		return fmt.Errorf("%q: %w", kind, ErrInvalidKind)
	}
	return nil
}
