// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists download outcomes in a SQLite database so
// past runs can be inspected and repeated failures spotted.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperhound/pkg/types"
)

// Store is the durable outcome ledger. It satisfies manager.Recorder.
type Store struct {
	db *sql.DB
}

// Entry is one recorded outcome with its timestamp.
type Entry struct {
	types.Outcome
	RecordedAt time.Time
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outcomes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT NOT NULL,
			success INTEGER NOT NULL,
			strategy TEXT,
			path TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_doi ON outcomes(doi)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one outcome. Implements manager.Recorder.
func (s *Store) Record(o types.Outcome) error {
	_, err := s.db.Exec(
		`INSERT INTO outcomes (doi, success, strategy, path, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		o.DOI, o.Success, o.Strategy, o.Path, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting outcome: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first, up to limit.
// limit <= 0 returns everything.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `SELECT doi, success, strategy, path, recorded_at FROM outcomes ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.DOI, &e.Success, &e.Strategy, &e.Path, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, recordedAt); parseErr == nil {
			e.RecordedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Failures returns the DOIs that have never succeeded in any run,
// useful for retrying a batch.
func (s *Store) Failures() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT doi FROM outcomes GROUP BY doi HAVING max(success) = 0 ORDER BY doi`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var dois []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning doi: %w", err)
		}
		dois = append(dois, d)
	}
	return dois, rows.Err()
}
