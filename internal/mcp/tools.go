package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/compare"
	"github.com/hyperjump/awase/internal/models"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "compare_texts",
		Description: "Compare two texts sentence by sentence using multilingual sentence embeddings. Returns the sentences of the original missing from the counterpart and the sentences of the counterpart not found in the original, with their indices. The texts may be in different languages.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"original_text": {"type": "string", "description": "The reference text"},
				"counterpart_text": {"type": "string", "description": "The text compared against the reference, e.g. a translation"},
				"source_language": {"type": "string", "description": "Language code of the original text, e.g. en"},
				"target_language": {"type": "string", "description": "Language code of the counterpart text, e.g. de"},
				"threshold": {"type": "number", "minimum": 0, "maximum": 1, "description": "Minimum cosine similarity for a sentence to count as present (default 0.75)"},
				"model": {"type": "string", "description": "Embedding model; defaults to the selected model"}
			},
			"required": ["original_text", "counterpart_text"]
		}`),
	}, s.handleCompareTexts)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_models",
		Description: "List the registered comparison models and which one is selected.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"kind": {"type": "string", "enum": ["comparison", "translation"], "description": "Model kind (default: comparison)"}
			}
		}`),
	}, s.handleListModels)

	if s.translator != nil {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        "translate_text",
			Description: "Translate a text into another language, for example to compare a machine translation of an article with its human-written counterpart.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {"type": "string", "description": "The text to translate"},
					"target_language": {"type": "string", "description": "Language code to translate into, e.g. de"},
					"model": {"type": "string", "description": "Translation model; defaults to the selected translation model"}
				},
				"required": ["text", "target_language"]
			}`),
		}, s.handleTranslateText)
	}
}

func (s *Server) handleCompareTexts(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args models.CompareRequest
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	var rec compare.Recorder
	if s.storage != nil {
		rec = s.storage
	}
	result, err := s.comparator.Submit(ctx, args, rec)
	if errors.Is(err, compare.ErrModelNotRegistered) {
		return toolError("%v; call list_models for the available models", err), nil
	}
	if err != nil {
		return toolError("%v", err), nil
	}
	s.logger.Debug("compare_texts",
		zap.String("model", result.Model),
		zap.Bool("success", result.Success),
		zap.String("id", result.ID))
	return toolJSON(result)
}

func (s *Server) handleTranslateText(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args models.TranslateRequest
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	result := s.translator.Translate(ctx, args)
	if !result.Success {
		return toolError("translation failed: %s", result.Error), nil
	}
	return toolJSON(result)
}

func (s *Server) handleListModels(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	if s.registry == nil {
		return toolError("model registry not available"), nil
	}
	var args struct {
		Kind string `json:"kind"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}
	if args.Kind == "" {
		args.Kind = string(models.KindComparison)
	}
	kind, err := models.ParseModelKind(args.Kind)
	if err != nil {
		return toolError("%v", err), nil
	}
	return toolJSON(map[string]interface{}{
		"kind":     kind,
		"models":   s.registry.List(kind),
		"selected": s.registry.Selected(kind),
	})
}

func toolJSON(v interface{}) (*gomcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("failed to encode result: %v", err), nil
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
