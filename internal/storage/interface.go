/*
Package storage implements read access to the fork event store.

The store is a SQLite database with two tables: codes, holding one row per
annotated candidate fork, and commands, holding the raw interaction log.
All window arithmetic is pushed down to SQLite via strftime('%s', ...),
so the database engine does the counting.

The database is opened through modernc.org/sqlite (a pure Go, CGo-free
implementation).
*/
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Store defines the read operations the feature extractor needs.
type Store interface {
	// Init opens the database and, for writable stores, runs migrations.
	Init(ctx context.Context) error

	// AnnotatedEvents returns every codes row with a non-empty retrospective.
	AnnotatedEvents(ctx context.Context) ([]AnnotatedEvent, error)

	// CountInWindow counts interaction events matching q.
	CountInWindow(ctx context.Context, q WindowQuery) (int, error)

	// EventsInWindow returns the interaction events matching q.
	EventsInWindow(ctx context.Context, q WindowQuery) ([]InteractionEvent, error)

	// CountFollowUps counts target events following a trigger event.
	CountFollowUps(ctx context.Context, q FollowUpQuery) (int, error)

	// EventNames lists distinct command and eclipse command names.
	EventNames(ctx context.Context) ([]EventName, error)

	// Close closes the database connection.
	Close() error
}

var _ Store = (*SQLiteStorage)(nil)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	readOnly bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStorage creates a storage handle for the database at path.
//
// A read-only store never creates the file and never runs migrations;
// a missing database is an error. A writable store creates the parent
// directory and the schema if needed.
func NewStorage(path string, readOnly bool) *SQLiteStorage {
	return &SQLiteStorage{
		dbPath:   path,
		readOnly: readOnly,
	}
}

// Path returns the database path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Init opens the database and runs migrations on writable stores.
//
// Unlike a cache, the event store is the only input of a run, so any
// failure here is returned to the caller and aborts the run.
func (s *SQLiteStorage) Init(ctx context.Context) error {
	var initErr error
	s.initOnce.Do(func() {
		dsn, err := s.dsn()
		if err != nil {
			initErr = err
			return
		}

		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			initErr = fmt.Errorf("failed to ping database %s: %w", s.dbPath, err)
			return
		}
		s.db = db

		if s.readOnly {
			return
		}

		if err := s.runMigrations(ctx); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}
	})

	return initErr
}

// dsn builds the driver connection string for the configured mode.
func (s *SQLiteStorage) dsn() (string, error) {
	if s.dbPath == "" {
		return "", fmt.Errorf("database path is empty")
	}

	if s.readOnly {
		if _, err := os.Stat(s.dbPath); err != nil {
			return "", fmt.Errorf("failed to access database %s: %w", s.dbPath, err)
		}
		return "file:" + s.dbPath + "?mode=ro", nil
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create db directory: %w", err)
	}
	return s.dbPath, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// handle returns the open database or an error if Init was not called.
func (s *SQLiteStorage) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("storage not initialized: %s", s.dbPath)
	}
	return s.db, nil
}
