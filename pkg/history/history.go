package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps a local log of runs and per-link outcomes backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			url TEXT NOT NULL,
			ok INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_run ON downloads(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a run and returns its id.
func (s *Store) BeginRun(ctx context.Context, query, mode string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (query, mode, started_at) VALUES (?, ?, ?)`,
		query, mode, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stores the final counters for a run.
func (s *Store) FinishRun(ctx context.Context, runID int64, succeeded, failed int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET succeeded = ?, failed = ? WHERE id = ?`,
		succeeded, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecordDownload logs one link attempt for a run.
func (s *Store) RecordDownload(ctx context.Context, runID int64, url string, ok bool, detail string) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO downloads (run_id, url, ok, detail, finished_at) VALUES (?, ?, ?, ?, ?)`,
		runID, url, okInt, detail, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	return nil
}

// CountForQuery returns how many links were ever downloaded successfully
// for a query, across all past runs.
func (s *Store) CountForQuery(ctx context.Context, query string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM downloads d JOIN runs r ON r.id = d.run_id
		 WHERE r.query = ? AND d.ok = 1`,
		query,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}
