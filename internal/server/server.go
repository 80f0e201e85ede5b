// Package server provides the HTTP API for awase.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/config"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/registry"
	"github.com/hyperjump/awase/internal/storage"
)

// LLMComparer runs the best-effort generative comparison.
type LLMComparer interface {
	Compare(ctx context.Context, textA, textB string) *models.LLMComparison
	Model() string
}

// Translator runs the best-effort translation.
type Translator interface {
	Translate(ctx context.Context, req models.TranslateRequest) *models.Translation
}

// ModelPool reports which embedding models are loaded.
type ModelPool interface {
	Loaded() []string
}

// Server is the HTTP server for the awase API.
type Server struct {
	comparator *compare.Comparator
	registry   *registry.Registry
	storage    storage.Storage
	llm        LLMComparer
	translator Translator
	pool       ModelPool
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithLLM enables /api/v1/comparison/llm.
func WithLLM(llm LLMComparer) Option {
	return func(s *Server) { s.llm = llm }
}

// WithTranslator enables POST /api/v1/translate.
func WithTranslator(t Translator) Option {
	return func(s *Server) { s.translator = t }
}

// WithPool reports loaded models in the status response.
func WithPool(pool ModelPool) Option {
	return func(s *Server) { s.pool = pool }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	comparator *compare.Comparator,
	reg *registry.Registry,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		comparator: comparator,
		registry:   reg,
		storage:    store,
		config:     cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/compare", s.handleCompare)
		r.Post("/articles/compare", s.handleArticleCompare)
		r.Get("/comparison/semantic", s.handleSemanticCompare)
		r.Post("/comparison/semantic", s.handleSemanticCompare)
		r.Get("/comparison/llm", s.handleLLMCompare)
		r.Post("/comparison/llm", s.handleLLMCompare)
		r.Post("/translate", s.handleTranslate)

		r.Get("/comparisons", s.handleListComparisons)
		r.Get("/comparisons/{id}", s.handleGetComparison)
		r.Delete("/comparisons/{id}", s.handleDeleteComparison)

		r.Get("/models/{kind}", s.handleListModels)
		r.Get("/models/{kind}/selected", s.handleSelectedModel)
		r.Post("/models/{kind}/select", s.handleSelectModel)
		r.Post("/models/{kind}/import", s.handleImportModel)
		r.Delete("/models/{kind}", s.handleDeleteModel)
		r.Delete("/models/{kind}/*", s.handleDeleteModel)

		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
