// history.go persists a ledger of pipeline runs in a local SQLite database so
// past conversions and publishes stay inspectable after the process exits.

package core

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run outcomes recorded in the ledger.
const (
	OutcomeConverted = "converted"
	OutcomeBlocked   = "blocked"
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
)

// RunRecord is one row of the run ledger.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Version        string
	Documents      int
	MarkerFailures int
	Issues         int
	Valid          bool
	Outcome        string
	SHA256         string
	S3URI          string
	Error          string
}

// HistoryStore reads and writes the run ledger.
type HistoryStore struct {
	db *sql.DB
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS publish_runs (
	id              TEXT PRIMARY KEY,
	started_at      TEXT NOT NULL,
	finished_at     TEXT NOT NULL,
	version         TEXT NOT NULL,
	documents       INTEGER NOT NULL,
	marker_failures INTEGER NOT NULL,
	issues          INTEGER NOT NULL,
	valid           INTEGER NOT NULL,
	outcome         TEXT NOT NULL,
	sha256          TEXT NOT NULL DEFAULT '',
	s3_uri          TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
)`

// OpenHistory opens the ledger at path, creating the file and its parent
// directory on first use. The handle is limited to one connection since the
// CLI is the only writer.
func OpenHistory(path string) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure history db: %w", err)
		}
	}

	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close releases the underlying database handle.
func (h *HistoryStore) Close() error { return h.db.Close() }

// RecordRun appends one run to the ledger.
func (h *HistoryStore) RecordRun(ctx context.Context, rec RunRecord) error {
	valid := 0
	if rec.Valid {
		valid = 1
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO publish_runs
			(id, started_at, finished_at, version, documents, marker_failures,
			 issues, valid, outcome, sha256, s3_uri, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.Version,
		rec.Documents,
		rec.MarkerFailures,
		rec.Issues,
		valid,
		rec.Outcome,
		rec.SHA256,
		rec.S3URI,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// falls back to 20.
func (h *HistoryStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, selectRuns+`
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestPublished returns the most recent run that uploaded an artifact, or
// nil when none has yet.
func (h *HistoryStore) LatestPublished(ctx context.Context) (*RunRecord, error) {
	rows, err := h.db.QueryContext(ctx, selectRuns+`
		WHERE outcome = ?
		ORDER BY started_at DESC
		LIMIT 1`, OutcomePublished)
	if err != nil {
		return nil, fmt.Errorf("latest published run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

const selectRuns = `
	SELECT id, started_at, finished_at, version, documents, marker_failures,
	       issues, valid, outcome, sha256, s3_uri, error
	FROM publish_runs`

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var (
		rec                   RunRecord
		startedAt, finishedAt string
		valid                 int
	)
	err := rows.Scan(
		&rec.ID, &startedAt, &finishedAt, &rec.Version,
		&rec.Documents, &rec.MarkerFailures, &rec.Issues, &valid,
		&rec.Outcome, &rec.SHA256, &rec.S3URI, &rec.Error,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.Valid = valid != 0
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return RunRecord{}, fmt.Errorf("scan run: bad started_at %q: %w", startedAt, err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return RunRecord{}, fmt.Errorf("scan run: bad finished_at %q: %w", finishedAt, err)
	}
	return rec, nil
}
