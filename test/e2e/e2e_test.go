package e2e

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/embedding"
	"github.com/hyperjump/awase/internal/extract"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/segment"
	"github.com/hyperjump/awase/internal/storage"
)

const e2eDimensions = 64

func newComparator(t *testing.T) *compare.Comparator {
	t.Helper()
	pool := embedding.NewPool(func(ctx context.Context, model string) (embedding.Embedder, error) {
		return embedding.NewHashEmbedder(e2eDimensions), nil
	}, embedding.WithCacheSize(500))
	t.Cleanup(func() { _ = pool.Close() })
	return compare.New(segment.NewProvider(), pool)
}

func TestE2E_CorpusDiffs(t *testing.T) {
	cmp := newComparator(t)
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	corpus := BuildCorpus(40)
	for _, tc := range corpus.Cases {
		req := models.CompareRequest{
			OriginalText:    tc.Original,
			CounterpartText: tc.Counterpart,
			SourceLanguage:  "en",
			TargetLanguage:  "en",
		}
		result, err := cmp.Compare(ctx, req)
		if err != nil {
			t.Fatalf("%s: %v", tc.Name, err)
		}
		if !result.Success {
			t.Fatalf("%s: comparison degraded", tc.Name)
		}
		if !reflect.DeepEqual(result.MissingInfo, tc.WantMissing) || !reflect.DeepEqual(result.MissingInfoIndices, tc.WantMissingIndices) {
			t.Errorf("%s: missing = %v %v, want %v %v", tc.Name, result.MissingInfo, result.MissingInfoIndices, tc.WantMissing, tc.WantMissingIndices)
		}
		if !reflect.DeepEqual(result.ExtraInfo, tc.WantExtra) || !reflect.DeepEqual(result.ExtraInfoIndices, tc.WantExtraIndices) {
			t.Errorf("%s: extra = %v %v, want %v %v", tc.Name, result.ExtraInfo, result.ExtraInfoIndices, tc.WantExtra, tc.WantExtraIndices)
		}
		rec := models.NewComparisonRecord(tc.Name, time.Now().UTC(), req, result)
		if err := store.SaveComparison(ctx, rec); err != nil {
			t.Fatalf("%s: save: %v", tc.Name, err)
		}
	}

	n, err := store.CountComparisons(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(corpus.Cases)) {
		t.Errorf("recorded %d comparisons, want %d", n, len(corpus.Cases))
	}
	rec, err := store.GetComparison(ctx, corpus.Cases[7].Name)
	if err != nil {
		t.Fatal(err)
	}
	if rec.MissingCount != 1 || rec.ExtraCount != 1 || rec.Result == nil {
		t.Errorf("stored record = %+v", rec)
	}
}

func TestE2E_FileInputs(t *testing.T) {
	cmp := newComparator(t)
	ex := extract.NewExtractor()
	dir := t.TempDir()
	corpus := BuildCorpus(3)
	tc := corpus.Cases[2]
	// Keep the article on one line; every line break is a sentence break.
	original := []string{tc.Original}

	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, original)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dir, "original"+ext)
			if err := os.WriteFile(path, content, 0644); err != nil {
				t.Fatal(err)
			}
			text, err := ex.Extract(path)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			result, err := cmp.Compare(context.Background(), models.CompareRequest{
				OriginalText:    text,
				CounterpartText: tc.Counterpart,
				SourceLanguage:  "en",
				TargetLanguage:  "en",
			})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(result.MissingInfo, tc.WantMissing) {
				t.Errorf("missing = %v, want %v", result.MissingInfo, tc.WantMissing)
			}
			if !reflect.DeepEqual(result.ExtraInfoIndices, tc.WantExtraIndices) {
				t.Errorf("extra indices = %v, want %v", result.ExtraInfoIndices, tc.WantExtraIndices)
			}
		})
	}
}
