// Package library remembers which articles were read and where reading
// stopped, so a later session can pick up at the same sentence.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one article in the reading history
type Entry struct {
	ID        string
	Source    string
	Title     string
	Cursor    int
	Count     int
	UpdatedAt time.Time
}

// Finished reports whether every sentence was read
func (e Entry) Finished() bool {
	return e.Count > 0 && e.Cursor >= e.Count
}

// Store is the SQLite backed reading history
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the history database location in the user's home
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "readaloud.db"
	}
	return filepath.Join(home, ".readaloud", "history.db")
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id text PRIMARY KEY,
			source text NOT NULL UNIQUE,
			title text NOT NULL DEFAULT '',
			cursor integer NOT NULL DEFAULT 0,
			count integer NOT NULL DEFAULT 0,
			updated_at integer NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_articles_updated ON articles (updated_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts the entry or updates the row with the same source. The
// stored row keeps its original ID.
func (s *Store) Save(e Entry) (Entry, error) {
	if e.Source == "" {
		return Entry{}, errors.New("history entry needs a source")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UpdatedAt = s.now()

	query := `INSERT INTO articles (id, source, title, cursor, count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			title = excluded.title,
			cursor = excluded.cursor,
			count = excluded.count,
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(query, e.ID, e.Source, e.Title, e.Cursor, e.Count, e.UpdatedAt.UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to save %s: %w", e.Source, err)
	}

	return s.Get(e.Source)
}

// Get returns the entry for source, sql.ErrNoRows when there is none
func (s *Store) Get(source string) (Entry, error) {
	row := s.db.QueryRow(`SELECT id, source, title, cursor, count, updated_at
		FROM articles WHERE source = ?`, source)

	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load %s: %w", source, err)
	}
	return e, nil
}

// Position returns where reading of source stopped. A source that was
// never read, or was read to the end, starts at 0.
func (s *Store) Position(source string) (int, error) {
	e, err := s.Get(source)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if e.Finished() {
		return 0, nil
	}
	return e.Cursor, nil
}

// List returns the most recently read entries first
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`SELECT id, source, title, cursor, count, updated_at
		FROM articles ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the entry for source
func (s *Store) Delete(source string) error {
	if _, err := s.db.Exec(`DELETE FROM articles WHERE source = ?`, source); err != nil {
		return fmt.Errorf("failed to delete %s: %w", source, err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		updated int64
	)
	if err := row.Scan(&e.ID, &e.Source, &e.Title, &e.Cursor, &e.Count, &updated); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}
