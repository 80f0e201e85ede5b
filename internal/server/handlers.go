package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/registry"
	"github.com/hyperjump/awase/internal/storage"
	"github.com/hyperjump/awase/internal/translate"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var errTextTooLarge = errors.New("text too large")

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.CompareRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, ok := s.runComparison(w, r, req)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleArticleCompare(w http.ResponseWriter, r *http.Request) {
	var req models.ArticleCompareRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, ok := s.runComparison(w, r, req.CompareRequest())
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewArticleCompareResponse(result))
}

func (s *Server) handleSemanticCompare(w http.ResponseWriter, r *http.Request) {
	var req models.SemanticRequest
	if r.Method == http.MethodGet {
		if !s.semanticFromQuery(w, r, &req) {
			return
		}
	} else if !s.decode(w, r, &req) {
		return
	}
	result, ok := s.runComparison(w, r, req.CompareRequest())
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewSemanticResponse(result))
}

// semanticFromQuery reads text_a, text_b, similarity_threshold and model_name
// from the query string.
func (s *Server) semanticFromQuery(w http.ResponseWriter, r *http.Request, req *models.SemanticRequest) bool {
	q := r.URL.Query()
	req.TextA = q.Get("text_a")
	req.TextB = q.Get("text_b")
	req.ModelName = q.Get("model_name")
	if v := q.Get("similarity_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid similarity_threshold")
			return false
		}
		req.SimilarityThreshold = &f
	}
	return true
}

// runComparison submits req and records it in the history when storage is
// available. It writes the error response itself and reports whether the
// caller should continue.
func (s *Server) runComparison(w http.ResponseWriter, r *http.Request, req models.CompareRequest) (*models.ComparisonResult, bool) {
	if err := s.checkTextSize(req.OriginalText, req.CounterpartText); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return nil, false
	}
	var rec compare.Recorder
	if s.storage != nil {
		rec = s.storage
	}
	result, err := s.comparator.Submit(r.Context(), req, rec)
	if errors.Is(err, compare.ErrModelNotRegistered) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return result, true
}

// history reports whether comparison history is available and otherwise
// writes a 501 response.
func (s *Server) history(w http.ResponseWriter) bool {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "comparison history not enabled")
		return false
	}
	return true
}

func (s *Server) checkTextSize(texts ...string) error {
	limit := s.config.Comparison.MaxTextBytes
	if limit <= 0 {
		return nil
	}
	for _, t := range texts {
		if int64(len(t)) > limit {
			return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", errTextTooLarge, len(t), limit)
		}
	}
	return nil
}

func (s *Server) handleLLMCompare(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		s.respondError(w, http.StatusNotImplemented, "llm comparison not enabled")
		return
	}
	var req models.LLMCompareRequest
	if r.Method == http.MethodGet {
		req.TextA = r.URL.Query().Get("text_a")
		req.TextB = r.URL.Query().Get("text_b")
	} else if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TextA) == "" || strings.TrimSpace(req.TextB) == "" {
		s.respondError(w, http.StatusBadRequest, "text_a and text_b are required")
		return
	}
	if err := s.checkTextSize(req.TextA, req.TextB); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	result := s.llm.Compare(r.Context(), req.TextA, req.TextB)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, result)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.translator == nil {
		s.respondError(w, http.StatusNotImplemented, "translation not enabled")
		return
	}
	var req models.TranslateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := translate.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkTextSize(req.Text); err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	result := s.translator.Translate(r.Context(), req)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, result)
}

func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.storage.ListComparisons(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list comparisons failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.ComparisonRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"comparisons": records,
		"offset":      offset,
		"limit":       limit,
	})
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	rec, err := s.storage.GetComparison(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "comparison not found")
		return
	}
	if err != nil {
		s.logger.Error("get comparison failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteComparison(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.storage.DeleteComparison(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "comparison not found")
		return
	}
	if err != nil {
		s.logger.Error("delete comparison failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.modelKind(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":     kind,
		"models":   s.registry.List(kind),
		"selected": s.registry.Selected(kind),
	})
}

func (s *Server) handleSelectedModel(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.modelKind(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "selected": s.registry.Selected(kind)})
}

func (s *Server) handleSelectModel(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.modelKind(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.registry.Select(r.Context(), kind, strings.TrimSpace(body.Name)); err != nil {
		s.respondRegistryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "selected": s.registry.Selected(kind)})
}

func (s *Server) handleImportModel(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.modelKind(w, r)
	if !ok {
		return
	}
	var body struct {
		Model   string `json:"model"`
		FromHub bool   `json:"from_hub"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	entry, err := s.registry.Import(r.Context(), kind, body.Model, body.FromHub)
	if err != nil {
		s.respondRegistryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, entry)
}

// handleDeleteModel takes the name from the path remainder, so hub
// identifiers with a slash work, or from the "name" query parameter.
func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.modelKind(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "*")
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "model name required")
		return
	}
	if err := s.registry.Delete(r.Context(), kind, name); err != nil {
		s.respondRegistryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})
}

func (s *Server) modelKind(w http.ResponseWriter, r *http.Request) (models.ModelKind, bool) {
	if s.registry == nil {
		s.respondError(w, http.StatusNotImplemented, "model registry not enabled")
		return "", false
	}
	kind, err := models.ParseModelKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

func (s *Server) respondRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidKind):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrModelNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrModelUnavailable):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("model registry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{}
	if s.storage != nil {
		modelCount, err := s.storage.CountModels(ctx)
		if err != nil {
			s.logger.Error("status: count models failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		comparisonCount, err := s.storage.CountComparisons(ctx)
		if err != nil {
			s.logger.Error("status: count comparisons failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["models"] = modelCount
		resp["comparisons"] = comparisonCount
	}
	if s.registry != nil {
		resp["selected_model"] = s.registry.Selected(models.KindComparison)
	}
	if s.pool != nil {
		resp["loaded_models"] = s.pool.Loaded()
	}

	cfg := s.config
	configInfo := map[string]interface{}{
		"embedding_provider":  cfg.Embedding.Provider,
		"default_model":       cfg.Embedding.DefaultModel,
		"threshold":           s.comparator.DefaultThreshold(),
		"max_text_bytes":      cfg.Comparison.MaxTextBytes,
		"languages":           cfg.Segmentation.Languages,
		"database_path":       cfg.Storage.DatabasePath,
		"llm_enabled":         s.llm != nil,
		"translation_enabled": s.translator != nil,
	}
	if s.llm != nil {
		configInfo["llm_model"] = s.llm.Model()
	}
	if diskBytes, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body bounded by the text limit. It writes the error
// response itself and reports whether decoding succeeded.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if limit := s.bodyLimit(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// bodyLimit allows two texts of the maximum size, escaped, plus the other fields.
func (s *Server) bodyLimit() int64 {
	if s.config.Comparison.MaxTextBytes <= 0 {
		return 0
	}
	return 4*s.config.Comparison.MaxTextBytes + 64<<10
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
