// Package mcp exposes text comparison to AI agents over the Model Context
// Protocol (stdio).
package mcp

import (
	"context"
	"errors"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/models"
	"github.com/hyperjump/awase/internal/registry"
	"github.com/hyperjump/awase/internal/storage"
)

// Server wraps the MCP server around a comparator.
type Server struct {
	mcp        *gomcp.Server
	comparator *compare.Comparator
	registry   *registry.Registry
	storage    storage.Storage
	translator Translator
	logger     *zap.Logger
}

// Translator runs the best-effort translation behind translate_text.
type Translator interface {
	Translate(ctx context.Context, req models.TranslateRequest) *models.Translation
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithRegistry enables list_models.
func WithRegistry(reg *registry.Registry) ServerOption {
	return func(s *Server) { s.registry = reg }
}

// WithStorage records every comparison in the history.
func WithStorage(store storage.Storage) ServerOption {
	return func(s *Server) { s.storage = store }
}

// WithTranslator enables the translate_text tool.
func WithTranslator(t Translator) ServerOption {
	return func(s *Server) { s.translator = t }
}

// WithLogger sets the logger. MCP owns stdout, so it must write elsewhere.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server with the comparison tools.
func NewServer(comparator *compare.Comparator, version string, opts ...ServerOption) (*Server, error) {
	if comparator == nil {
		return nil, errors.New("comparator is required")
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		mcp:        gomcp.NewServer(&gomcp.Implementation{Name: "awase", Version: version}, nil),
		comparator: comparator,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
