// Package history persists finished runs in SQLite so past results
// survive server restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seed INTEGER NOT NULL,
    turns INTEGER NOT NULL,
    final_score INTEGER NOT NULL,
    banked_score INTEGER NOT NULL,
    end_reason TEXT NOT NULL,
    finished_at INTEGER NOT NULL
);
`

// Record is one finished run.
type Record struct {
	Seed        int64
	Turns       int
	FinalScore  int64
	BankedScore int64
	EndReason   string
	FinishedAt  time.Time
}

// Store persists run records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the store at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts one finished run.
func (s *Store) RecordRun(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.EndReason == "" {
		return fmt.Errorf("end reason is required")
	}
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (seed, turns, final_score, banked_score, end_reason, finished_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Seed, rec.Turns, rec.FinalScore, rec.BankedScore, rec.EndReason, finished.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recently finished runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT seed, turns, final_score, banked_score, end_reason, finished_at
FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var millis int64
		if err := rows.Scan(&rec.Seed, &rec.Turns, &rec.FinalScore, &rec.BankedScore, &rec.EndReason, &millis); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.FinishedAt = time.UnixMilli(millis).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
