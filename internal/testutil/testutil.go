package testutil

import (
	"database/sql"
	"io"
	"testing"

	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/repository/postgres"
	"github.com/pratik-mahalle/opsguard/migrations"
	_ "modernc.org/sqlite"
)

// NewTestDB creates an in-memory SQLite database with the control-plane schema applied
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	migrationsFS, err := migrations.GetFS("sqlite")
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if err := postgres.RunMigrations(db, migrationsFS); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}

// NewFileDB opens a WAL-mode SQLite file at path with the control-plane schema applied,
// the way the server opens its store. It is closed when the test ends.
func NewFileDB(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := postgres.Open(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Failed to open file database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CleanupDB closes the test database
func CleanupDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}

// NewTestLogger returns a logger that discards everything below error level
func NewTestLogger() *logger.Logger {
	return logger.NewFromWriter(io.Discard, "error")
}
