// Package sqlite implements the persistence interfaces on top of a local
// SQLite database file using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	role          TEXT NOT NULL CHECK (role IN ('faculty', 'student')),
	department    TEXT NOT NULL DEFAULT '',
	student_id    TEXT,
	faculty_id    TEXT,
	avatar        TEXT,
	phone         TEXT,
	password_hash TEXT NOT NULL DEFAULT '',
	join_date     TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_state (
	namespace  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	event_date TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events (event_date);
`

// Storage owns the database handle shared by the repository implementations.
type Storage struct {
	db *sql.DB
}

// Open connects to the SQLite database identified by dsn.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// The driver opens lazily; fail fast on an unusable DSN.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate applies the embedded schema. Statements are idempotent so Migrate is
// safe to run at every startup.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Users returns the registry implementation backed by this storage.
func (s *Storage) Users() *UserRegistry {
	return &UserRegistry{db: s.db}
}

// Sessions returns the session state store backed by this storage.
func (s *Storage) Sessions() *SessionStateStore {
	return &SessionStateStore{db: s.db}
}

// Events returns the event repository backed by this storage.
func (s *Storage) Events() *EventRepository {
	return &EventRepository{db: s.db}
}
