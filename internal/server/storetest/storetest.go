// Package storetest opens migrated throwaway SQLite databases for tests.
package storetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
)

// Open returns a migrated SQLite database in t's temp dir together with a
// repository manager over it. The pool is capped at one connection, so code
// running inside a transaction must only use the tx handle.
func Open(t *testing.T) (*sql.DB, *repomanager.SQLRepositoryManager) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, dialect, err := repomanager.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewSQLRepositoryManager(db, dialect)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, m
}

// SeedUsers inserts bare user rows so child tables can reference them. Each
// id doubles as the username.
func SeedUsers(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		_, err := db.Exec(`INSERT INTO users (id, username, password_hash, salt, created_at) VALUES ($1, $2, $3, $4, $5)`,
			id, id, "hash", "salt", created)
		if err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
}
