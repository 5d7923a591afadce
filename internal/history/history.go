// Package history keeps an append-only SQLite journal of diagnostic
// runs performed through the server surface.
//
// The journal never feeds back into parsing — every parse stays a
// pure function of its input. Records exist so an operator can ask
// "what did the last few runs look like" without re-running anything.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one journaled diagnostic run.
type Run struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`   // "build", "test", or "bundle"
	Status          string `json:"status"` // "success" or "failed"
	ErrorCount      int    `json:"error_count"`
	WarningCount    int    `json:"warning_count"`
	FailedTestCount int    `json:"failed_test_count"`
	PassedTestCount int    `json:"passed_test_count"`
	Report          string `json:"report"`
	CreatedAt       string `json:"created_at"`
}

// Config holds journal configuration.
type Config struct {
	DataDir string
	// MaxRuns bounds the journal; the oldest rows beyond it are
	// trimmed on every write.
	MaxRuns int
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".xcdiag"),
		MaxRuns: 200,
	}
}

// Store is the journal backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs the
// migration.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			status            TEXT NOT NULL,
			error_count       INTEGER NOT NULL DEFAULT 0,
			warning_count     INTEGER NOT NULL DEFAULT 0,
			failed_test_count INTEGER NOT NULL DEFAULT 0,
			passed_test_count INTEGER NOT NULL DEFAULT 0,
			report            TEXT NOT NULL,
			created_at        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record journals one run, assigning its ID and timestamp, and trims
// the journal to the configured bound.
func (s *Store) Record(run Run) (Run, error) {
	run.ID = uuid.NewString()
	// Fixed-width nanosecond timestamps so lexicographic ordering in
	// SQL matches chronological ordering even for rapid writes.
	run.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")

	_, err := s.db.Exec(`
		INSERT INTO runs (id, kind, status, error_count, warning_count,
			failed_test_count, passed_test_count, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Status, run.ErrorCount, run.WarningCount,
		run.FailedTestCount, run.PassedTestCount, run.Report, run.CreatedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("history: record run: %w", err)
	}

	if s.cfg.MaxRuns > 0 {
		_, err = s.db.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?
			)`, s.cfg.MaxRuns)
		if err != nil {
			return Run{}, fmt.Errorf("history: trim runs: %w", err)
		}
	}
	return run, nil
}

// Recent returns the newest runs, newest first. A non-positive limit
// uses the configured journal bound.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 || limit > s.cfg.MaxRuns {
		limit = s.cfg.MaxRuns
	}

	rows, err := s.db.Query(`
		SELECT id, kind, status, error_count, warning_count,
			failed_test_count, passed_test_count, report, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &r.ErrorCount, &r.WarningCount,
			&r.FailedTestCount, &r.PassedTestCount, &r.Report, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}
