package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotConnected is returned when no credentials are stored for an athlete
var ErrNotConnected = errors.New("no strava credentials stored for athlete")

// ErrSyncInProgress is returned when a sync attempt is rejected because
// another attempt for the same athlete is already running
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrStateNotFound is returned when an OAuth state token is unknown or expired
var ErrStateNotFound = errors.New("oauth state not found or expired")

// ErrIdentityNotFound is returned when an athlete has no identity row
var ErrIdentityNotFound = errors.New("athlete identity not found")

// Store is the application's data access layer over SQLite
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating it and running
// migrations if necessary.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Serialize writers; sqlite allows one at a time
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced operations
func (s *Store) DB() *sql.DB {
	return s.db
}
