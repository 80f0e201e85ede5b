package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/awase/internal/models"
)

// ErrModelNotRegistered is returned by Submit for a model the catalog does not know.
var ErrModelNotRegistered = errors.New("model is not registered")

// Catalog reports whether a model may be used for comparisons.
type Catalog interface {
	Known(name string) bool
}

// Recorder stores finished comparisons.
type Recorder interface {
	SaveComparison(ctx context.Context, rec *models.ComparisonRecord) error
}

// WithCatalog rejects requests for models the catalog does not know. Without
// a catalog any model name is passed to the loader.
func WithCatalog(cat Catalog) Option {
	return func(c *Comparator) { c.catalog = cat }
}

// Submit is the request path shared by the HTTP, MCP and CLI front ends. It
// validates req, resolves its model and checks it against the catalog, runs
// the comparison and, when rec is non-nil, records it under a new id.
//
// The only errors are contract violations from Validate and
// ErrModelNotRegistered. A recording failure is logged and leaves the result
// without an id.
func (c *Comparator) Submit(ctx context.Context, req models.CompareRequest, rec Recorder) (*models.ComparisonResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Model = c.ResolveModel(req.Model)
	if c.catalog != nil && !c.catalog.Known(req.Model) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotRegistered, req.Model)
	}
	c.logger.Debug("compare request",
		zap.String("model", req.Model),
		zap.String("source_language", req.SourceLanguage),
		zap.String("target_language", req.TargetLanguage),
		zap.Int("original_bytes", len(req.OriginalText)),
		zap.Int("counterpart_bytes", len(req.CounterpartText)))

	result := c.Run(ctx, req)
	if rec == nil {
		return result, nil
	}
	result.ID = uuid.NewString()
	record := models.NewComparisonRecord(result.ID, time.Now().UTC(), req, result)
	if err := rec.SaveComparison(ctx, record); err != nil {
		c.logger.Warn("failed to record comparison", zap.Error(err))
		result.ID = ""
	}
	return result, nil
}
