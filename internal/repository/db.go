// Package repository persists pipeline jobs in SQLite. The job row is the
// suspension point for the review gate: validation output parks there and
// a corrected mapping resumes it, so no goroutine ever blocks on a human.
package repository

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Schema for the jobs table. Applied by Open.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	template_name TEXT NOT NULL,
	document_paths TEXT NOT NULL,
	status TEXT NOT NULL,
	raw_text TEXT,
	extracted_json TEXT,
	validation_json TEXT,
	output_text TEXT,
	last_error TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// Open opens (or creates) the SQLite job database and applies the schema.
// Use ":memory:" for ephemeral runs.
func Open(path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening job store", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc.org/sqlite is not safe for concurrent writers on one conn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("job store ready", "path", path)
	return db, nil
}

// Close closes the database gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close job store", "error", err)
			return
		}
	}
	logger.Info("job store closed")
}
