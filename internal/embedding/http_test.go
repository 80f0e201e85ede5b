package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newEmbedServer(t *testing.T, known string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != known {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "model \"" + req.Model + "\" not found"})
			return
		}
		hash := NewHashEmbedder(4)
		out, _ := hash.EmbedBatch(r.Context(), req.Input)
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": out})
	}))
}

func TestHTTPEmbedder(t *testing.T) {
	srv := newEmbedServer(t, "labse")
	defer srv.Close()
	ctx := context.Background()

	e, err := NewHTTPEmbedder(ctx, HTTPConfig{BaseURL: srv.URL + "/", Model: "labse"})
	if err != nil {
		t.Fatalf("NewHTTPEmbedder: %v", err)
	}
	if e.Dimensions() != 4 {
		t.Errorf("Dimensions() = %d, want 4", e.Dimensions())
	}
	out, err := e.EmbedBatch(ctx, []string{"one", "two"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || len(out[1]) != 4 {
		t.Errorf("unexpected batch shape: %v", out)
	}
	single, err := e.Embed(ctx, "one")
	if err != nil {
		t.Fatal(err)
	}
	for i := range single {
		if single[i] != out[0][i] {
			t.Fatal("Embed and EmbedBatch disagree")
		}
	}
	empty, err := e.EmbedBatch(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty batch: %v, %v", empty, err)
	}
}

func TestHTTPEmbedder_UnknownModel(t *testing.T) {
	srv := newEmbedServer(t, "labse")
	defer srv.Close()

	_, err := NewHTTPEmbedder(context.Background(), HTTPConfig{BaseURL: srv.URL, Model: "nope"})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("got %v, want ErrModelNotFound", err)
	}
}

func TestHTTPEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPEmbedder(context.Background(), HTTPConfig{BaseURL: srv.URL, Model: "m"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestHTTPEmbedder_RequiresConfig(t *testing.T) {
	if _, err := NewHTTPEmbedder(context.Background(), HTTPConfig{Model: "m"}); err == nil {
		t.Error("expected error without base url")
	}
	if _, err := NewHTTPEmbedder(context.Background(), HTTPConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error without model")
	}
}
