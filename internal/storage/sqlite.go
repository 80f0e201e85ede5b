package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/awase/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		path TEXT,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (kind, name)
	);

	CREATE TABLE IF NOT EXISTS selections (
		kind TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		source_language TEXT,
		target_language TEXT,
		model TEXT,
		threshold REAL NOT NULL,
		success INTEGER NOT NULL,
		missing_count INTEGER NOT NULL,
		extra_count INTEGER NOT NULL,
		result TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveModel inserts or replaces a registry entry.
func (s *SQLiteStorage) SaveModel(ctx context.Context, entry *models.ModelEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO models (kind, name, source, path, added_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind, name) DO UPDATE SET source = excluded.source, path = excluded.path`,
		string(entry.Kind), entry.Name, string(entry.Source), entry.Path, entry.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", entry.Name, err)
	}
	return nil
}

// DeleteModel removes a registry entry and clears its selection.
func (s *SQLiteStorage) DeleteModel(ctx context.Context, kind models.ModelKind, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM models WHERE kind = ? AND name = ?`, string(kind), name)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("model %s: %w", name, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM selections WHERE kind = ? AND name = ?`, string(kind), name); err != nil {
		return err
	}
	return tx.Commit()
}

// ListModels returns the entries of kind ordered by insertion time.
func (s *SQLiteStorage) ListModels(ctx context.Context, kind models.ModelKind) ([]*models.ModelEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, name, source, path, added_at FROM models WHERE kind = ? ORDER BY added_at, rowid`,
		string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ModelEntry
	for rows.Next() {
		var e models.ModelEntry
		var k, src string
		var path sql.NullString
		if err := rows.Scan(&k, &e.Name, &src, &path, &e.AddedAt); err != nil {
			return nil, err
		}
		e.Kind = models.ModelKind(k)
		e.Source = models.ModelSource(src)
		e.Path = path.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SetSelection records the selected model of kind.
func (s *SQLiteStorage) SetSelection(ctx context.Context, kind models.ModelKind, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selections (kind, name) VALUES (?, ?)
		 ON CONFLICT(kind) DO UPDATE SET name = excluded.name`,
		string(kind), name,
	)
	return err
}

// GetSelection returns the selected model of kind, or "".
func (s *SQLiteStorage) GetSelection(ctx context.Context, kind models.ModelKind) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM selections WHERE kind = ?`, string(kind)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// SaveComparison stores a comparison record together with its full result.
func (s *SQLiteStorage) SaveComparison(ctx context.Context, rec *models.ComparisonRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comparisons
		 (id, created_at, source_language, target_language, model, threshold, success, missing_count, extra_count, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.SourceLanguage, rec.TargetLanguage, rec.Model, rec.Threshold,
		rec.Success, rec.MissingCount, rec.ExtraCount, string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save comparison %s: %w", rec.ID, err)
	}
	return nil
}

// GetComparison returns a comparison record with its result.
func (s *SQLiteStorage) GetComparison(ctx context.Context, id string) (*models.ComparisonRecord, error) {
	var rec models.ComparisonRecord
	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source_language, target_language, model, threshold, success, missing_count, extra_count, result
		 FROM comparisons WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.SourceLanguage, &rec.TargetLanguage, &rec.Model, &rec.Threshold,
		&rec.Success, &rec.MissingCount, &rec.ExtraCount, &resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("comparison %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if resultJSON != "" && resultJSON != "null" {
		rec.Result = &models.ComparisonResult{}
		if err := json.Unmarshal([]byte(resultJSON), rec.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	return &rec, nil
}

// ListComparisons returns records newest first.
func (s *SQLiteStorage) ListComparisons(ctx context.Context, offset, limit int) ([]*models.ComparisonRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source_language, target_language, model, threshold, success, missing_count, extra_count
		 FROM comparisons ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ComparisonRecord
	for rows.Next() {
		var rec models.ComparisonRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.SourceLanguage, &rec.TargetLanguage, &rec.Model,
			&rec.Threshold, &rec.Success, &rec.MissingCount, &rec.ExtraCount); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// DeleteComparison removes a comparison record.
func (s *SQLiteStorage) DeleteComparison(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comparisons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("comparison %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountModels returns the number of registered models of all kinds.
func (s *SQLiteStorage) CountModels(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n)
	return n, err
}

// CountComparisons returns the number of stored comparisons.
func (s *SQLiteStorage) CountComparisons(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comparisons`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
