// Package models defines the request, result and registry types shared by the
// comparison engine, the HTTP API, the CLI and storage.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultThreshold is the minimum best-match similarity for a sentence to count as aligned.
	DefaultThreshold = 0.75
	// DefaultModel is the multilingual embedding model used when none is selected.
	DefaultModel = "sentence-transformers/LaBSE"

	MaxLanguageLength  = 10
	MaxModelNameLength = 100
)

// Contract violations reported by Validate.
var (
	ErrEmptyText        = errors.New("text must not be empty")
	ErrThresholdRange   = errors.New("threshold must be between 0 and 1")
	ErrLanguageTooLong  = fmt.Errorf("language code longer than %d characters", MaxLanguageLength)
	ErrModelNameTooLong = fmt.Errorf("model name longer than %d characters", MaxModelNameLength)
)

// IsValidation reports whether err is a contract violation from Validate.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrThresholdRange) ||
		errors.Is(err, ErrLanguageTooLong) ||
		errors.Is(err, ErrModelNameTooLong)
}

// CompareRequest asks for a sentence-level comparison of two texts.
type CompareRequest struct {
	OriginalText    string `json:"original_text"`
	CounterpartText string `json:"counterpart_text"`
	SourceLanguage  string `json:"source_language,omitempty"`
	TargetLanguage  string `json:"target_language,omitempty"`
	// Threshold nil means the configured default; 0 is a valid threshold.
	Threshold *float64 `json:"threshold,omitempty"`
	Model     string   `json:"model,omitempty"`
}

// Validate checks the request and trims the language and model fields.
func (r *CompareRequest) Validate() error {
	if strings.TrimSpace(r.OriginalText) == "" {
		return fmt.Errorf("original_text: %w", ErrEmptyText)
	}
	if strings.TrimSpace(r.CounterpartText) == "" {
		return fmt.Errorf("counterpart_text: %w", ErrEmptyText)
	}
	if r.Threshold != nil {
		if t := *r.Threshold; math.IsNaN(t) || t < 0 || t > 1 {
			return fmt.Errorf("threshold %v: %w", t, ErrThresholdRange)
		}
	}
	r.SourceLanguage = strings.TrimSpace(r.SourceLanguage)
	r.TargetLanguage = strings.TrimSpace(r.TargetLanguage)
	if len(r.SourceLanguage) > MaxLanguageLength {
		return fmt.Errorf("source_language: %w", ErrLanguageTooLong)
	}
	if len(r.TargetLanguage) > MaxLanguageLength {
		return fmt.Errorf("target_language: %w", ErrLanguageTooLong)
	}
	r.Model = strings.TrimSpace(r.Model)
	if len(r.Model) > MaxModelNameLength {
		return fmt.Errorf("model: %w", ErrModelNameTooLong)
	}
	return nil
}

// ThresholdOr returns the request threshold, or def when none was given.
func (r *CompareRequest) ThresholdOr(def float64) float64 {
	if r.Threshold == nil {
		return def
	}
	return *r.Threshold
}

// Float64 returns a pointer to v, for optional thresholds.
func Float64(v float64) *float64 {
	return &v
}

// ComparisonResult is the outcome of one comparison. Sentence and index slices
// are never nil; MissingInfo[i] is OriginalSentences[MissingInfoIndices[i]] and
// ExtraInfo[i] is TranslatedSentences[ExtraInfoIndices[i]].
type ComparisonResult struct {
	ID                  string   `json:"id,omitempty"`
	OriginalSentences   []string `json:"original_sentences"`
	TranslatedSentences []string `json:"translated_sentences"`
	MissingInfo         []string `json:"missing_info"`
	ExtraInfo           []string `json:"extra_info"`
	MissingInfoIndices  []int    `json:"missing_info_indices"`
	ExtraInfoIndices    []int    `json:"extra_info_indices"`
	Success             bool     `json:"success"`
	Model               string   `json:"model,omitempty"`
	Threshold           float64  `json:"threshold"`
	// Failures describes the stages that degraded the result.
	Failures []string `json:"failures,omitempty"`
}

// NewComparisonResult returns an empty successful result with non-nil slices.
func NewComparisonResult() *ComparisonResult {
	return &ComparisonResult{
		OriginalSentences:   []string{},
		TranslatedSentences: []string{},
		MissingInfo:         []string{},
		ExtraInfo:           []string{},
		MissingInfoIndices:  []int{},
		ExtraInfoIndices:    []int{},
		Success:             true,
	}
}

// Fail marks the result unsuccessful and records why.
func (r *ComparisonResult) Fail(stage string, err error) {
	r.Success = false
	if err != nil {
		r.Failures = append(r.Failures, fmt.Sprintf("%s: %v", stage, err))
	} else {
		r.Failures = append(r.Failures, stage)
	}
}

// ClearDiffs empties the missing and extra lists.
func (r *ComparisonResult) ClearDiffs() {
	r.MissingInfo = []string{}
	r.ExtraInfo = []string{}
	r.MissingInfoIndices = []int{}
	r.ExtraInfoIndices = []int{}
}
