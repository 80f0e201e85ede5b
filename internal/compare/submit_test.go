package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/awase/internal/models"
)

type knownSet map[string]bool

func (k knownSet) Known(name string) bool { return k[name] }

type memoryRecorder struct {
	records []*models.ComparisonRecord
	err     error
}

func (m *memoryRecorder) SaveComparison(_ context.Context, rec *models.ComparisonRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

var submitRequest = models.CompareRequest{
	OriginalText:    "Cats are mammals. Dogs are mammals.",
	CounterpartText: "Cats are mammals.",
	SourceLanguage:  "en",
	TargetLanguage:  "en",
}

func TestSubmit_Records(t *testing.T) {
	c := newComparator(WithCatalog(knownSet{models.DefaultModel: true}))
	rec := &memoryRecorder{}
	res, err := c.Submit(context.Background(), submitRequest, rec)
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" || len(rec.records) != 1 {
		t.Fatalf("id = %q, records = %d", res.ID, len(rec.records))
	}
	saved := rec.records[0]
	if saved.ID != res.ID || saved.Model != models.DefaultModel || saved.MissingCount != 1 || saved.SourceLanguage != "en" {
		t.Errorf("record = %+v", saved)
	}
}

func TestSubmit_WithoutRecorder(t *testing.T) {
	res, err := newComparator().Submit(context.Background(), submitRequest, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "" || !res.Success {
		t.Errorf("result = %+v", res)
	}
}

func TestSubmit_RecorderFailureKeepsResult(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("disk full")}
	res, err := newComparator().Submit(context.Background(), submitRequest, rec)
	if err != nil {
		t.Fatalf("recording failure should not fail the comparison: %v", err)
	}
	if res.ID != "" || len(res.MissingInfo) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSubmit_UnknownModel(t *testing.T) {
	c := newComparator(WithCatalog(knownSet{models.DefaultModel: true}))
	req := submitRequest
	req.Model = "nope"
	rec := &memoryRecorder{}
	res, err := c.Submit(context.Background(), req, rec)
	if !errors.Is(err, ErrModelNotRegistered) || res != nil {
		t.Fatalf("got %v, %v; want ErrModelNotRegistered", res, err)
	}
	if len(rec.records) != 0 {
		t.Error("rejected request should not be recorded")
	}

	// The selected model is checked too.
	c = newComparator(WithCatalog(knownSet{}), WithResolver(fixedResolver("gone")))
	if _, err := c.Submit(context.Background(), submitRequest, nil); !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("resolved model: got %v", err)
	}
}

func TestSubmit_NoCatalogPassesModelToLoader(t *testing.T) {
	req := submitRequest
	req.Model = "nope"
	res, err := newComparator().Submit(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Model != "nope" {
		t.Errorf("unknown model should fail in the loader: %+v", res)
	}
}

func TestSubmit_RejectsContractViolations(t *testing.T) {
	req := submitRequest
	req.CounterpartText = " "
	rec := &memoryRecorder{}
	res, err := newComparator().Submit(context.Background(), req, rec)
	if err == nil || res != nil || !models.IsValidation(err) {
		t.Errorf("got %v, %v; want validation error", res, err)
	}
	if len(rec.records) != 0 {
		t.Error("invalid request should not be recorded")
	}
}
