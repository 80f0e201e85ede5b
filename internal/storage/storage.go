// Package storage persists the model registry and the comparison history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/awase/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines registry and history persistence operations.
type Storage interface {
	// Model registry
	SaveModel(ctx context.Context, entry *models.ModelEntry) error
	DeleteModel(ctx context.Context, kind models.ModelKind, name string) error
	ListModels(ctx context.Context, kind models.ModelKind) ([]*models.ModelEntry, error)
	SetSelection(ctx context.Context, kind models.ModelKind, name string) error
	// GetSelection returns "" when nothing is selected for kind.
	GetSelection(ctx context.Context, kind models.ModelKind) (string, error)

	// Comparison history
	SaveComparison(ctx context.Context, rec *models.ComparisonRecord) error
	GetComparison(ctx context.Context, id string) (*models.ComparisonRecord, error)
	// ListComparisons returns records newest first, without their Result.
	ListComparisons(ctx context.Context, offset, limit int) ([]*models.ComparisonRecord, error)
	DeleteComparison(ctx context.Context, id string) error

	// Stats
	CountModels(ctx context.Context) (int64, error)
	CountComparisons(ctx context.Context) (int64, error)

	Close() error
}
