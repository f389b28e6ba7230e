// Package testutil provides shared test helpers for storage-backed components.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/smartnotes/internal/storage"
)

// TestSQLite opens a SQLite provider in a temporary directory that is
// closed automatically.
func TestSQLite(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "smartnotes-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary data directory with a file provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// FixedClock returns a time source frozen at at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
