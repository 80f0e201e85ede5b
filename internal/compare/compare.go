// Package compare runs a sentence-level semantic comparison of two texts:
// load the embedding model, segment both texts, embed the sentences and diff
// them in both directions.
//
// Run never fails. Problems degrade the result and clear Success:
//   - the model cannot be loaded: each side becomes its raw text, no diffs;
//   - segmentation fails: each side becomes its raw text, comparison continues;
//   - embedding or scoring fails: the diffs are emptied.
package compare

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/align"
	"github.com/hyperjump/awase/internal/embedding"
	"github.com/hyperjump/awase/internal/models"
)

// Segmenter splits text into sentences for a language hint.
type Segmenter interface {
	Segment(text, lang string) ([]string, error)
}

// ModelLoader returns the embedder for a model identifier.
type ModelLoader interface {
	Load(ctx context.Context, model string) (embedding.Embedder, error)
}

// ModelResolver picks the model for a request that may not name one.
type ModelResolver interface {
	ResolveModel(requested string) string
}

// Comparator compares texts. It holds no per-call state.
type Comparator struct {
	segmenter    Segmenter
	loader       ModelLoader
	resolver     ModelResolver
	catalog      Catalog
	threshold    float64
	defaultModel string
	logger       *zap.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Comparator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithResolver sets how a missing model name is resolved.
func WithResolver(r ModelResolver) Option {
	return func(c *Comparator) { c.resolver = r }
}

// WithDefaultThreshold sets the threshold used when a request has none.
// Values outside [0, 1] are ignored.
func WithDefaultThreshold(t float64) Option {
	return func(c *Comparator) {
		if !math.IsNaN(t) && t >= 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// WithDefaultModel sets the model used when neither the request nor the resolver names one.
func WithDefaultModel(name string) Option {
	return func(c *Comparator) {
		if name != "" {
			c.defaultModel = name
		}
	}
}

// New creates a Comparator.
func New(segmenter Segmenter, loader ModelLoader, opts ...Option) *Comparator {
	c := &Comparator{
		segmenter:    segmenter,
		loader:       loader,
		threshold:    models.DefaultThreshold,
		defaultModel: models.DefaultModel,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultThreshold returns the threshold used for requests without one.
func (c *Comparator) DefaultThreshold() float64 {
	return c.threshold
}

// ResolveModel returns the model a request would use.
func (c *Comparator) ResolveModel(requested string) string {
	if requested != "" {
		return requested
	}
	if c.resolver != nil {
		if m := c.resolver.ResolveModel(""); m != "" {
			return m
		}
	}
	return c.defaultModel
}

// Compare validates req and runs it. The only errors are contract violations
// (see models.IsValidation); everything else is reported in the result.
func (c *Comparator) Compare(ctx context.Context, req models.CompareRequest) (*models.ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.Run(ctx, req), nil
}

// Run compares the texts of req without validating it.
func (c *Comparator) Run(ctx context.Context, req models.CompareRequest) *models.ComparisonResult {
	start := time.Now()
	result := models.NewComparisonResult()
	result.Model = c.ResolveModel(req.Model)
	result.Threshold = req.ThresholdOr(c.threshold)
	log := c.logger.With(zap.String("model", result.Model), zap.Float64("threshold", result.Threshold))

	embedder, err := c.loader.Load(ctx, result.Model)
	if err != nil {
		log.Error("comparison model unavailable", zap.Error(err))
		result.OriginalSentences = []string{req.OriginalText}
		result.TranslatedSentences = []string{req.CounterpartText}
		result.Fail("model", err)
		return result
	}

	original, counterpart, err := c.segment(req)
	if err != nil {
		log.Warn("segmentation failed, comparing whole texts", zap.Error(err))
		original = []string{req.OriginalText}
		counterpart = []string{req.CounterpartText}
		result.Fail("segmentation", err)
	}
	result.OriginalSentences = original
	result.TranslatedSentences = counterpart

	if err := c.diff(ctx, embedder, result); err != nil {
		log.Error("scoring failed", zap.Error(err))
		result.ClearDiffs()
		result.Fail("scoring", err)
	}

	log.Debug("comparison finished",
		zap.Int("original_sentences", len(result.OriginalSentences)),
		zap.Int("translated_sentences", len(result.TranslatedSentences)),
		zap.Int("missing", len(result.MissingInfo)),
		zap.Int("extra", len(result.ExtraInfo)),
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", time.Since(start)))
	return result
}

func (c *Comparator) segment(req models.CompareRequest) ([]string, []string, error) {
	original, err := c.segmenter.Segment(req.OriginalText, req.SourceLanguage)
	if err != nil {
		return nil, nil, err
	}
	counterpart, err := c.segmenter.Segment(req.CounterpartText, req.TargetLanguage)
	if err != nil {
		return nil, nil, err
	}
	if original == nil {
		original = []string{}
	}
	if counterpart == nil {
		counterpart = []string{}
	}
	return original, counterpart, nil
}

// diff fills the missing and extra lists of result from its sentence sets.
func (c *Comparator) diff(ctx context.Context, e embedding.Embedder, result *models.ComparisonResult) error {
	originalEmb, err := e.EmbedBatch(ctx, result.OriginalSentences)
	if err != nil {
		return err
	}
	counterpartEmb, err := e.EmbedBatch(ctx, result.TranslatedSentences)
	if err != nil {
		return err
	}
	missing, missingIdx, err := align.Diff(result.OriginalSentences, originalEmb, counterpartEmb, result.Threshold)
	if err != nil {
		return err
	}
	extra, extraIdx, err := align.Diff(result.TranslatedSentences, counterpartEmb, originalEmb, result.Threshold)
	if err != nil {
		return err
	}
	result.MissingInfo, result.MissingInfoIndices = missing, missingIdx
	result.ExtraInfo, result.ExtraInfoIndices = extra, extraIdx
	return nil
}
