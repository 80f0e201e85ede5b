package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/storage"
)

type fakeHub map[string]bool

func (h fakeHub) Exists(_ context.Context, id string) error {
	if h[id] {
		return nil
	}
	return errors.New("404")
}

func newTestRegistry(t *testing.T, dbPath string, opts ...Option) *Registry {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	r, err := New(context.Background(), store, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNew_SeedsDefaults(t *testing.T) {
	r := newTestRegistry(t, filepath.Join(t.TempDir(), "r.db"))

	list := r.List(models.KindComparison)
	if len(list) != len(DefaultComparisonModels) {
		t.Fatalf("got %d models, want %d", len(list), len(DefaultComparisonModels))
	}
	for i, e := range list {
		if e.Name != DefaultComparisonModels[i] || e.Source != models.SourceHub {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
	if got := r.Selected(models.KindComparison); got != models.DefaultModel {
		t.Errorf("Selected = %q, want %q", got, models.DefaultModel)
	}
	if len(r.List(models.KindTranslation)) != 0 || r.Selected(models.KindTranslation) != "" {
		t.Error("translation registry should start empty")
	}
}

func TestRegistry_PersistsAcrossReload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "r.db")
	ctx := context.Background()

	r := newTestRegistry(t, dbPath, WithHubChecker(fakeHub{"org/model": true}))
	if _, err := r.Import(ctx, models.KindComparison, "org/model", true); err != nil {
		t.Fatal(err)
	}
	if err := r.Select(ctx, models.KindComparison, "org/model"); err != nil {
		t.Fatal(err)
	}

	reloaded := newTestRegistry(t, dbPath)
	if got := reloaded.Selected(models.KindComparison); got != "org/model" {
		t.Errorf("selection after reload = %q", got)
	}
	if len(reloaded.List(models.KindComparison)) != len(DefaultComparisonModels)+1 {
		t.Errorf("reload should not reseed or lose models: %v", reloaded.List(models.KindComparison))
	}
}

func TestRegistry_ImportHub(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, filepath.Join(t.TempDir(), "r.db"),
		WithHubChecker(fakeHub{"sentence-transformers/all-MiniLM-L6-v2": true}))

	e, err := r.Import(ctx, models.KindComparison, "sentence-transformers/all-MiniLM-L6-v2", true)
	if err != nil {
		t.Fatal(err)
	}
	if e.Source != models.SourceHub || !r.Known(e.Name) {
		t.Errorf("unexpected entry %+v", e)
	}

	_, err = r.Import(ctx, models.KindComparison, "all-MiniLM-L6-v2", true)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("unknown hub model: got %v, want ErrModelUnavailable", err)
	}

	// Already registered: no hub round trip needed.
	if _, err := r.Import(ctx, models.KindComparison, "xlm-roberta-base", true); err != nil {
		t.Errorf("re-import of a seeded model: %v", err)
	}
}

func TestRegistry_ImportCustom(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "models", "my-labse")
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		t.Fatal(err)
	}
	r := newTestRegistry(t, filepath.Join(dir, "r.db"))

	e, err := r.Import(ctx, models.KindTranslation, modelDir, false)
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "my-labse" || e.Path != modelDir || e.Source != models.SourceCustom {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, ok := r.Lookup(models.KindTranslation, modelDir); !ok {
		t.Error("custom model should be found by its path")
	}
	if _, err := r.Import(ctx, models.KindTranslation, filepath.Join(dir, "missing"), false); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("missing path: got %v", err)
	}
}

func TestRegistry_LocalPath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "onnx-labse")
	if err := os.Mkdir(modelDir, 0755); err != nil {
		t.Fatal(err)
	}
	r := newTestRegistry(t, filepath.Join(dir, "r.db"))
	if _, err := r.Import(ctx, models.KindComparison, modelDir, false); err != nil {
		t.Fatal(err)
	}
	if got := r.LocalPath("onnx-labse"); got != modelDir {
		t.Errorf("LocalPath = %q", got)
	}
	if got := r.LocalPath(models.DefaultModel); got != "" {
		t.Errorf("hub model should have no local path, got %q", got)
	}
}

func TestRegistry_SelectAndDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, filepath.Join(t.TempDir(), "r.db"))

	if err := r.Select(ctx, models.KindComparison, "nope"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("select unknown: got %v", err)
	}
	if err := r.Select(ctx, models.ModelKind("bogus"), "x"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("select bogus kind: got %v", err)
	}
	if err := r.Select(ctx, models.KindComparison, "xlm-roberta-base"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, models.KindComparison, "xlm-roberta-base"); err != nil {
		t.Fatal(err)
	}
	if r.Selected(models.KindComparison) != "" {
		t.Error("deleting the selected model should clear the selection")
	}
	if r.Known("xlm-roberta-base") {
		t.Error("deleted model still known")
	}
	if err := r.Delete(ctx, models.KindComparison, "xlm-roberta-base"); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestRegistry_ResolveModel(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, filepath.Join(t.TempDir(), "r.db"), WithDefaultModel("multi-qa-mpnet-base-cos-v1"))

	if got := r.ResolveModel("explicit"); got != "explicit" {
		t.Errorf("explicit: %q", got)
	}
	// The configured default is also the seeded selection.
	if got := r.ResolveModel(""); got != "multi-qa-mpnet-base-cos-v1" {
		t.Errorf("selected: %q", got)
	}
	if err := r.Select(ctx, models.KindComparison, "xlm-roberta-base"); err != nil {
		t.Fatal(err)
	}
	if got := r.ResolveModel(""); got != "xlm-roberta-base" {
		t.Errorf("after select: %q", got)
	}
	if err := r.Delete(ctx, models.KindComparison, "xlm-roberta-base"); err != nil {
		t.Fatal(err)
	}
	if got := r.ResolveModel(""); got != "multi-qa-mpnet-base-cos-v1" {
		t.Errorf("fallback: %q", got)
	}
}
