package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/embedding"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/registry"
	"github.com/hyperjump/awase/internal/segment"
	"github.com/hyperjump/awase/internal/storage"
)

type fakeLLM struct {
	result *models.LLMComparison
}

func (f *fakeLLM) Compare(context.Context, string, string) *models.LLMComparison { return f.result }
func (f *fakeLLM) Model() string                                                  { return "fake-llm" }

type testEnv struct {
	srv     *Server
	store   storage.Storage
	reg     *registry.Registry
	handler http.Handler
	cfg     *config.Config
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "awase.db")

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	reg, err := registry.New(context.Background(), store)
	if err != nil {
		t.Fatal(err)
	}
	pool := embedding.NewPool(func(ctx context.Context, model string) (embedding.Embedder, error) {
		return embedding.NewHashEmbedder(64), nil
	})
	t.Cleanup(func() { _ = pool.Close() })
	cmp := compare.New(segment.NewProvider(), pool, compare.WithResolver(reg), compare.WithCatalog(reg))

	srv := NewServer(cmp, reg, store, cfg, zap.NewNop(), append([]Option{WithPool(pool)}, opts...)...)
	return &testEnv{srv: srv, store: store, reg: reg, handler: srv.Handler(), cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if s, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(s))
	} else if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHandleCompare(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"original_text":    "Cats are mammals. Dogs are mammals. Birds can fly.",
		"counterpart_text": "Cats are mammals. Birds can fly.",
		"source_language":  "en",
		"target_language":  "en",
		"threshold":        0.75,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.ComparisonResult
	decodeBody(t, w, &out)
	if !out.Success || len(out.MissingInfo) != 1 || out.MissingInfo[0] != "Dogs are mammals." {
		t.Errorf("result = %+v", out)
	}
	if out.ID == "" {
		t.Fatal("expected the comparison to be recorded")
	}
	rec, err := env.store.GetComparison(context.Background(), out.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.MissingCount != 1 || rec.Model != models.DefaultModel || rec.SourceLanguage != "en" {
		t.Errorf("record = %+v", rec)
	}
}

func TestHandleCompare_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Comparison.MaxTextBytes = 64
	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed json", "{not json", http.StatusBadRequest},
		{"blank text", map[string]string{"original_text": "  ", "counterpart_text": "x"}, http.StatusBadRequest},
		{"threshold out of range", map[string]interface{}{"original_text": "a", "counterpart_text": "b", "threshold": 2}, http.StatusBadRequest},
		{"unknown model", map[string]string{"original_text": "a", "counterpart_text": "b", "model": "nope"}, http.StatusNotFound},
		{"text too large", map[string]string{"original_text": strings.Repeat("a", 65), "counterpart_text": "b"}, http.StatusRequestEntityTooLarge},
		{"body too large", map[string]string{"original_text": "a", "counterpart_text": "b", "padding": strings.Repeat("x", 70<<10)}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/compare", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			var out map[string]string
			decodeBody(t, w, &out)
			if out["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestHandleCompare_ExplicitZeroThreshold(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"original_text": "One thing. Another thing.", "counterpart_text": "Something else entirely.", "threshold": 0,
	})
	var out models.ComparisonResult
	decodeBody(t, w, &out)
	if w.Code != http.StatusOK || out.Threshold != 0 {
		t.Errorf("explicit threshold 0 should be kept, got %v", out.Threshold)
	}
}

func TestHandleArticleCompare(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/articles/compare", map[string]interface{}{
		"article_text_blob_1":          "Cats are mammals. Dogs are mammals.",
		"article_text_blob_2":          "Cats are mammals.",
		"article_text_blob_1_language": "en",
		"article_text_blob_2_language": "en",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.ArticleCompareResponse
	decodeBody(t, w, &out)
	if len(out.Comparisons) != 1 {
		t.Fatalf("comparisons = %+v", out.Comparisons)
	}
	c := out.Comparisons[0]
	if len(c.LeftArticleArray) != 2 || len(c.LeftArticleMissingInfoIndex) != 1 || c.LeftArticleMissingInfoIndex[0] != 1 {
		t.Errorf("comparison = %+v", c)
	}
}

func TestHandleSemanticCompare(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/comparison/semantic", map[string]interface{}{
		"text_a": "Cats are mammals.",
		"text_b": "Cats are mammals. Fish swim.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SemanticResponse
	decodeBody(t, w, &out)
	if len(out.MissingInfo) != 0 || len(out.ExtraInfo) != 1 || out.ExtraInfo[0].Index != 1 {
		t.Errorf("response = %+v", out)
	}
}

func TestHandleSemanticCompare_Query(t *testing.T) {
	env := newTestEnv(t)
	q := url.Values{}
	q.Set("text_a", "Cats are mammals. Fish swim.")
	q.Set("text_b", "Cats are mammals.")
	q.Set("similarity_threshold", "0.8")
	w := env.do(t, http.MethodGet, "/api/v1/comparison/semantic?"+q.Encode(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SemanticResponse
	decodeBody(t, w, &out)
	if len(out.MissingInfo) != 1 || out.MissingInfo[0].Index != 1 || len(out.ExtraInfo) != 0 {
		t.Errorf("response = %+v", out)
	}

	q.Set("similarity_threshold", "high")
	if w := env.do(t, http.MethodGet, "/api/v1/comparison/semantic?"+q.Encode(), nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad threshold: got %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/comparison/semantic?text_a=a", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing text_b: got %d, want 400", w.Code)
	}
}

func TestHandleLLMCompare(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/comparison/llm", map[string]string{"text_a": "a", "text_b": "b"})
		if w.Code != http.StatusNotImplemented {
			t.Errorf("status: got %d, want 501", w.Code)
		}
	})
	t.Run("success", func(t *testing.T) {
		llm := &fakeLLM{result: &models.LLMComparison{MissingInfo: []string{"x"}, ExtraInfo: []string{}, Success: true}}
		env := newTestEnv(t, WithLLM(llm))
		w := env.do(t, http.MethodPost, "/api/v1/comparison/llm", map[string]string{"text_a": "a", "text_b": "b"})
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d", w.Code)
		}
		var out models.LLMComparison
		decodeBody(t, w, &out)
		if len(out.MissingInfo) != 1 {
			t.Errorf("out = %+v", out)
		}
	})
	t.Run("failure", func(t *testing.T) {
		llm := &fakeLLM{result: &models.LLMComparison{MissingInfo: []string{}, ExtraInfo: []string{}, Error: "boom"}}
		env := newTestEnv(t, WithLLM(llm))
		w := env.do(t, http.MethodPost, "/api/v1/comparison/llm", map[string]string{"text_a": "a", "text_b": "b"})
		if w.Code != http.StatusBadGateway {
			t.Errorf("status: got %d, want 502", w.Code)
		}
	})
	t.Run("query", func(t *testing.T) {
		llm := &fakeLLM{result: &models.LLMComparison{MissingInfo: []string{}, ExtraInfo: []string{"y"}, Success: true}}
		env := newTestEnv(t, WithLLM(llm))
		w := env.do(t, http.MethodGet, "/api/v1/comparison/llm?text_a=a&text_b=b", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
		}
		var out models.LLMComparison
		decodeBody(t, w, &out)
		if len(out.ExtraInfo) != 1 {
			t.Errorf("out = %+v", out)
		}
		if w := env.do(t, http.MethodGet, "/api/v1/comparison/llm?text_a=a", nil); w.Code != http.StatusBadRequest {
			t.Errorf("missing text_b: got %d, want 400", w.Code)
		}
	})
	t.Run("missing text", func(t *testing.T) {
		env := newTestEnv(t, WithLLM(&fakeLLM{}))
		w := env.do(t, http.MethodPost, "/api/v1/comparison/llm", map[string]string{"text_a": "a"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400", w.Code)
		}
	})
}

func TestHandleComparisons(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/compare", map[string]string{"original_text": "a.", "counterpart_text": "b."})
		if w.Code != http.StatusOK {
			t.Fatalf("compare: %d", w.Code)
		}
	}

	w := env.do(t, http.MethodGet, "/api/v1/comparisons?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var list struct {
		Comparisons []models.ComparisonRecord `json:"comparisons"`
		Limit       int                       `json:"limit"`
	}
	decodeBody(t, w, &list)
	if len(list.Comparisons) != 2 || list.Limit != 2 {
		t.Fatalf("list = %+v", list)
	}

	id := list.Comparisons[0].ID
	w = env.do(t, http.MethodGet, "/api/v1/comparisons/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	var rec models.ComparisonRecord
	decodeBody(t, w, &rec)
	if rec.Result == nil || len(rec.Result.OriginalSentences) != 1 {
		t.Errorf("record should carry the full result: %+v", rec)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/comparisons/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("delete: %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/comparisons/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted: %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/comparisons?offset=-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("negative offset: %d, want 400", w.Code)
	}
}

func TestHandleModels(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/models/comparison", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	var list struct {
		Models   []models.ModelEntry `json:"models"`
		Selected string              `json:"selected"`
	}
	decodeBody(t, w, &list)
	if len(list.Models) != len(registry.DefaultComparisonModels) || list.Selected != models.DefaultModel {
		t.Errorf("list = %+v", list)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/models/bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind: %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/models/comparison/select", map[string]string{"name": "xlm-roberta-base"})
	if w.Code != http.StatusOK {
		t.Fatalf("select: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/api/v1/models/comparison/selected", nil)
	var sel map[string]string
	decodeBody(t, w, &sel)
	if sel["selected"] != "xlm-roberta-base" {
		t.Errorf("selected = %v", sel)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/models/comparison/select", map[string]string{"name": "nope"}); w.Code != http.StatusNotFound {
		t.Errorf("select unknown: %d, want 404", w.Code)
	}

	modelDir := filepath.Join(t.TempDir(), "my-model")
	if err := mkdir(modelDir); err != nil {
		t.Fatal(err)
	}
	w = env.do(t, http.MethodPost, "/api/v1/models/comparison/import", map[string]interface{}{"model": modelDir, "from_hub": false})
	if w.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	if !env.reg.Known("my-model") {
		t.Error("imported model should be known")
	}
	w = env.do(t, http.MethodPost, "/api/v1/models/comparison/import", map[string]interface{}{"model": filepath.Join(modelDir, "absent")})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("import missing path: %d, want 422", w.Code)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/models/comparison/sentence-transformers/LaBSE", nil); w.Code != http.StatusOK {
		t.Errorf("delete hub model: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/models/comparison?name=my-model", nil); w.Code != http.StatusOK {
		t.Errorf("delete by query: %d %s", w.Code, w.Body.String())
	}
	if env.reg.Known("sentence-transformers/LaBSE") || env.reg.Known("my-model") {
		t.Error("deleted models should be unknown")
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/models/comparison/my-model", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete twice: %d, want 404", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	env := newTestEnv(t)
	_ = env.do(t, http.MethodPost, "/api/v1/compare", map[string]string{"original_text": "a.", "counterpart_text": "b."})

	w := env.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Models         int64                  `json:"models"`
		Comparisons    int64                  `json:"comparisons"`
		SelectedModel  string                 `json:"selected_model"`
		LoadedModels   []string               `json:"loaded_models"`
		DiskUsageBytes *int64                 `json:"disk_usage_bytes"`
		Config         map[string]interface{} `json:"config"`
	}
	decodeBody(t, w, &out)
	if out.Models != int64(len(registry.DefaultComparisonModels)) || out.Comparisons != 1 {
		t.Errorf("counts = %d/%d", out.Models, out.Comparisons)
	}
	if out.SelectedModel != models.DefaultModel || len(out.LoadedModels) != 1 {
		t.Errorf("models = %q %v", out.SelectedModel, out.LoadedModels)
	}
	if out.DiskUsageBytes == nil || *out.DiskUsageBytes < 1 {
		t.Errorf("disk usage = %v", out.DiskUsageBytes)
	}
	if out.Config["threshold"] != 0.75 || out.Config["llm_enabled"] != false {
		t.Errorf("config = %v", out.Config)
	}
}

func TestServer_WithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	srv := NewServer(env.srv.comparator, env.reg, nil, env.cfg, zap.NewNop())
	env.handler = srv.Handler()

	w := env.do(t, http.MethodPost, "/api/v1/compare", map[string]string{"original_text": "a.", "counterpart_text": "b."})
	if w.Code != http.StatusOK {
		t.Fatalf("compare: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.ComparisonResult
	decodeBody(t, w, &out)
	if out.ID != "" {
		t.Errorf("result should not carry an id without history, got %q", out.ID)
	}

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/comparisons"},
		{http.MethodGet, "/api/v1/comparisons/some-id"},
		{http.MethodDelete, "/api/v1/comparisons/some-id"},
	} {
		if w := env.do(t, tt.method, tt.path, nil); w.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: got %d, want 501", tt.method, tt.path, w.Code)
		}
	}

	w = env.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var status map[string]interface{}
	decodeBody(t, w, &status)
	if _, ok := status["comparisons"]; ok {
		t.Errorf("status should omit counts without storage: %v", status)
	}
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, req models.TranslateRequest) *models.Translation {
	if req.Text == "fail" {
		return &models.Translation{TargetLanguage: req.TargetLanguage, Error: "model unavailable"}
	}
	return &models.Translation{Text: strings.ToUpper(req.Text), TargetLanguage: req.TargetLanguage, Model: "fake", Success: true}
}

func TestHandleTranslate(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/v1/translate", map[string]string{"text": "hi", "target_language": "de"})
		if w.Code != http.StatusNotImplemented {
			t.Errorf("status: got %d, want 501", w.Code)
		}
	})

	env := newTestEnv(t, WithTranslator(fakeTranslator{}))
	env.cfg.Comparison.MaxTextBytes = 64
	w := env.do(t, http.MethodPost, "/api/v1/translate", map[string]string{"text": "hello.", "target_language": "de"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.Translation
	decodeBody(t, w, &out)
	if !out.Success || out.Text != "HELLO." {
		t.Errorf("translation = %+v", out)
	}

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed json", "{not json", http.StatusBadRequest},
		{"blank text", map[string]string{"text": " ", "target_language": "de"}, http.StatusBadRequest},
		{"unknown language", map[string]string{"text": "hi", "target_language": "no such language"}, http.StatusBadRequest},
		{"missing language", map[string]string{"text": "hi"}, http.StatusBadRequest},
		{"text too large", map[string]string{"text": strings.Repeat("a", 65), "target_language": "de"}, http.StatusRequestEntityTooLarge},
		{"translation failed", map[string]string{"text": "fail", "target_language": "de"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/v1/translate", tt.body); w.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func mkdir(path string) error {
	return os.MkdirAll(path, 0755)
}

func TestHandleArticleCompare_EmptySide(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/articles/compare", map[string]interface{}{
		"article_text_blob_1":          "Cats are mammals. Dogs are mammals.",
		"article_text_blob_2":          "...",
		"article_text_blob_1_language": "en",
		"article_text_blob_2_language": "ja",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.ArticleCompareResponse
	decodeBody(t, w, &out)
	c := out.Comparisons[0]
	if !c.Success || len(c.RightArticleArray) != 0 || len(c.LeftArticleMissingInfoIndex) != 2 || len(c.MissingInfo) != 2 {
		t.Errorf("comparison = %+v", c)
	}
}
