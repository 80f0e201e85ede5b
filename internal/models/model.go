package models

import (
	"fmt"
	"time"
)

// ModelKind separates comparison (embedding) models from translation models.
type ModelKind string

const (
	KindComparison  ModelKind = "comparison"
	KindTranslation ModelKind = "translation"
)

// ParseModelKind validates a kind name.
func ParseModelKind(s string) (ModelKind, error) {
	switch ModelKind(s) {
	case KindComparison, KindTranslation:
		return ModelKind(s), nil
	}
	return "", fmt.Errorf("unknown model kind %q (want %q or %q)", s, KindComparison, KindTranslation)
}

// ModelSource tells where a model comes from.
type ModelSource string

const (
	// SourceHub models are identified by their model hub id, e.g. "sentence-transformers/LaBSE".
	SourceHub ModelSource = "hub"
	// SourceCustom models live on the local filesystem and are named by their last path element.
	SourceCustom ModelSource = "custom"
)

// ModelEntry is one registered model.
type ModelEntry struct {
	Name    string      `json:"name"`
	Kind    ModelKind   `json:"kind"`
	Source  ModelSource `json:"source"`
	Path    string      `json:"path,omitempty"`
	AddedAt time.Time   `json:"added_at"`
}

// ComparisonRecord is a stored comparison.
type ComparisonRecord struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	SourceLanguage string            `json:"source_language"`
	TargetLanguage string            `json:"target_language"`
	Model          string            `json:"model"`
	Threshold      float64           `json:"threshold"`
	Success        bool              `json:"success"`
	MissingCount   int               `json:"missing_count"`
	ExtraCount     int               `json:"extra_count"`
	Result         *ComparisonResult `json:"result,omitempty"`
}

// NewComparisonRecord summarizes a finished comparison for the history.
func NewComparisonRecord(id string, createdAt time.Time, req CompareRequest, result *ComparisonResult) *ComparisonRecord {
	return &ComparisonRecord{
		ID:             id,
		CreatedAt:      createdAt,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		Model:          result.Model,
		Threshold:      result.Threshold,
		Success:        result.Success,
		MissingCount:   len(result.MissingInfo),
		ExtraCount:     len(result.ExtraInfo),
		Result:         result,
	}
}

// LLMCompareRequest asks the language model to compare two texts.
type LLMCompareRequest struct {
	TextA string `json:"text_a"`
	TextB string `json:"text_b"`
}

// LLMComparison is the best-effort outcome of an LLM comparison.
type LLMComparison struct {
	MissingInfo []string `json:"missing_info"`
	ExtraInfo   []string `json:"extra_info"`
	Success     bool     `json:"success"`
	Model       string   `json:"model,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// TranslateRequest asks for text to be translated into TargetLanguage.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model,omitempty"`
}

// Translation is the best-effort outcome of a translation. Text is empty
// unless Success is true.
type Translation struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	Model          string `json:"model,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}
