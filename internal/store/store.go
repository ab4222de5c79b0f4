// Package store caches the last successfully fetched CSV text per dataset in
// SQLite, so a restart can serve data before the first fetch completes. The
// spreadsheet remains the sole source of truth; nothing here is written back
// to it.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bblibapp/bblib-server/internal/errors"
	"github.com/bblibapp/bblib-server/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// Store provides the SQLite-backed snapshot cache.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// Snapshot is one cached CSV body.
type Snapshot struct {
	Dataset   string
	Body      string
	FetchedAt time.Time
}

// Open creates the cache at the given path, configuring WAL mode and running
// the schema migration.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	log.Debug("snapshot cache opened", "path", path)

	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot upserts the cached body for a dataset.
func (s *Store) SaveSnapshot(ctx context.Context, dataset, body string, fetchedAt time.Time) error {
	const q = `
		INSERT INTO csv_snapshots (dataset, body, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(dataset) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at`

	_, err := s.db.ExecContext(ctx, q, dataset, body, formatTime(fetchedAt))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", dataset, err)
	}
	return nil
}

// LoadSnapshot returns the cached body for a dataset, or a not-found error if
// the dataset has never been cached.
func (s *Store) LoadSnapshot(ctx context.Context, dataset string) (Snapshot, error) {
	const q = `SELECT body, fetched_at FROM csv_snapshots WHERE dataset = ?`

	var body, fetchedAt string
	err := s.db.QueryRowContext(ctx, q, dataset).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return Snapshot{}, errors.NotFoundf("no cached snapshot for %s", dataset)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", dataset, err)
	}

	ts, err := parseTime(fetchedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot time %q: %w", fetchedAt, err)
	}

	return Snapshot{Dataset: dataset, Body: body, FetchedAt: ts}, nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
