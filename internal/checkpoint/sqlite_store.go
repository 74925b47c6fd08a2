package checkpoint

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the checkpoint and a ledger of completed batches in a
// SQLite database
type SQLiteStore struct {
	db    *sql.DB
	runID string
}

// OpenSQLiteStore opens or creates the database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	// One writer; the pipeline is strictly sequential anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, runID: uuid.NewString()}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create checkpoint tables: %w", err)
	}
	return s, nil
}

// OpenSQLiteStoreReadOnly opens an existing database without creating or
// migrating anything. Save and Commit fail on it.
func OpenSQLiteStoreReadOnly(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS checkpoint (
			id integer PRIMARY KEY CHECK (id = 1),
			last_index integer NOT NULL,
			updated_at text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS batches (
			id integer PRIMARY KEY AUTOINCREMENT,
			run_id text NOT NULL,
			start_index integer NOT NULL,
			end_index integer NOT NULL,
			languages text NOT NULL,
			completed_at text NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// RunID identifies the batches recorded by this process
func (s *SQLiteStore) RunID() string {
	return s.runID
}

// Load returns the stored offset, 0 if there is none
func (s *SQLiteStore) Load() int {
	var offset int
	err := s.db.QueryRow(`SELECT last_index FROM checkpoint WHERE id = 1`).Scan(&offset)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Save replaces the stored offset
func (s *SQLiteStore) Save(offset int) error {
	if err := upsertCheckpoint(s.db, offset); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Commit advances the checkpoint and records the batch in one transaction
func (s *SQLiteStore) Commit(start, end int, languages []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertCheckpoint(tx, end); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO batches (run_id, start_index, end_index, languages, completed_at) VALUES (?, ?, ?, ?, ?)`,
		s.runID, start, end, strings.Join(languages, ","), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// History returns the batch ledger in completion order
func (s *SQLiteStore) History() ([]BatchRecord, error) {
	rows, err := s.db.Query(`SELECT run_id, start_index, end_index, languages, completed_at FROM batches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch history: %w", err)
	}
	defer rows.Close()

	var records []BatchRecord
	for rows.Next() {
		var rec BatchRecord
		var langs, completed string
		if err := rows.Scan(&rec.RunID, &rec.Start, &rec.End, &langs, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan batch history: %w", err)
		}
		if langs != "" {
			rec.Languages = strings.Split(langs, ",")
		}
		rec.CompletedAt, _ = time.Parse(time.RFC3339, completed)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertCheckpoint(db execer, offset int) error {
	_, err := db.Exec(
		`INSERT INTO checkpoint (id, last_index, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_index = excluded.last_index, updated_at = excluded.updated_at`,
		offset, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
