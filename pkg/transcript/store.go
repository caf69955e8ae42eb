// Package transcript keeps a log of the symbols an endpoint exchanged.
package transcript

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest schema version.
const SchemaVersion = 1

// Direction of an entry relative to the recording endpoint.
type Direction string

// Directions.
const (
	Sent     Direction = "tx"
	Received Direction = "rx"
)

// Entry is one exchanged symbol.
type Entry struct {
	ID        string
	Time      time.Time
	Direction Direction
	// Local and Remote are endpoint addresses.
	Local   string
	Remote  string
	Pattern string
	// Text is the decoded token, " " for a space and "?" for unknown.
	Text string
}

// Store is a transcript in a SQLite database.
type Store struct {
	db *sql.DB

	lock    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens or creates the database at path. Use ":memory:" for a
// private in-memory store.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own database.
		db.SetMaxOpenConns(1)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS entries (
		  id         TEXT PRIMARY KEY,
		  at         INTEGER NOT NULL,
		  direction  TEXT NOT NULL,
		  local      TEXT NOT NULL,
		  remote     TEXT NOT NULL,
		  pattern    TEXT NOT NULL,
		  text       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_at ON entries(at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1: %w", err)
		}
	}
	if version < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}
	return nil
}

// Record stores an entry, assigning ID and Time when unset.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.ID == "" {
		s.lock.Lock()
		id, err := ulid.New(ulid.Timestamp(e.Time), s.entropy)
		s.lock.Unlock()
		if err != nil {
			return fmt.Errorf("entry id: %w", err)
		}
		e.ID = id.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, at, direction, local, remote, pattern, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixMilli(), string(e.Direction), e.Local, e.Remote, e.Pattern, e.Text)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	return nil
}

// Recent returns up to limit latest entries, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, direction, local, remote, pattern, text FROM entries ORDER BY at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	var entries []*Entry
	for rows.Next() {
		var e Entry
		var at int64
		var dir string
		if err := rows.Scan(&e.ID, &at, &dir, &e.Local, &e.Remote, &e.Pattern, &e.Text); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Time, e.Direction = time.UnixMilli(at), Direction(dir)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
