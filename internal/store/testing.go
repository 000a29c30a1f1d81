package store

import (
	"database/sql"
	"testing"
)

// NewTestStore creates a Store backed by an in-memory database. Only
// intended for use in tests.
func NewTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if err := migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return &Store{db: db}
}
