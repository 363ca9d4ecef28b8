package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "giddycycles.db")
	db, err := Open(context.Background(), Config{Mode: ModePlain, Path: path})
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

var fetchedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestOpenPlainRunsMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "giddycycles.db")
	cfg := Config{Mode: ModePlain, Path: path}

	db, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	var version int
	if err := db.QueryRow("SELECT version FROM schema_migrations WHERE id = 1").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}
	db.Close()

	// Reopening an up to date database is a no-op.
	db, err = Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second Open() unexpected error: %v", err)
	}
	db.Close()

	exists, err := hasLocalDBFiles(path)
	if err != nil || !exists {
		t.Fatalf("hasLocalDBFiles() = (%t, %v), want (true, nil)", exists, err)
	}
	if err := Wipe(cfg); err != nil {
		t.Fatalf("Wipe() unexpected error: %v", err)
	}
	exists, err = hasLocalDBFiles(path)
	if err != nil || exists {
		t.Fatalf("hasLocalDBFiles() after Wipe = (%t, %v), want (false, nil)", exists, err)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "giddycycles.db")
	cfg := Config{Mode: ModePlain, Path: path}
	db, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_migrations SET version = 99 WHERE id = 1"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	db.Close()

	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() error = nil, want newer schema error")
	}
}

func TestOpenRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Mode: "cloud", Path: filepath.Join(t.TempDir(), "x.db")})
	if err == nil {
		t.Fatal("Open() error = nil, want unknown mode error")
	}
}
