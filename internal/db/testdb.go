package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh file-backed SQLite database with the schema applied.
// A file is used instead of :memory: so that every pooled connection sees the
// same database, which concurrent tests rely on.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
