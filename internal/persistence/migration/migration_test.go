package migration

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/example/room-reservations/internal/persistence"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrations.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunner_UpEmbedded(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	runner, err := NewRunner(db, persistence.DriverSQLite, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	applied, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(applied))
	}

	for _, table := range []string{"buildings", "rooms", "users", "reservations", "checkin_codes"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}

	again, err := runner.Up(ctx)
	if err != nil {
		t.Fatalf("second Up failed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no pending migrations, got %d", len(again))
	}

	status, err := runner.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != "003" || len(status.Applied) != 3 || len(status.Pending) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestRunner_PostgresFilesParse(t *testing.T) {
	runner, err := NewRunner(nil, persistence.DriverPostgres, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	migrations, err := runner.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(migrations) != 3 || migrations[0].Version != "001" || migrations[0].Description != "catalog" {
		t.Fatalf("unexpected postgres migrations %+v", migrations)
	}
}

func TestRunner_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"001_notes.sql": {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY);")},
	}

	if _, err := NewRunnerFS(db, persistence.DriverSQLite, files, nil).Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	files["001_notes.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT);")}
	_, err := NewRunnerFS(db, persistence.DriverSQLite, files, nil).Up(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestRunner_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	files := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (id TEXT PRIMARY KEY);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE half (id TEXT);\nINSERT INTO missing VALUES (1);")},
	}

	applied, err := NewRunnerFS(db, persistence.DriverSQLite, files, nil).Up(ctx)
	var mErr *MigrationError
	if !errors.As(err, &mErr) || mErr.Version != "002" {
		t.Fatalf("expected migration error for 002, got %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("expected first migration to stay applied, got %d", len(applied))
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected partial migration to be rolled back")
	}
}

func TestRunner_LoadRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {"init.sql": {Data: []byte("SELECT 1;")}},
		"empty":    {"001_empty.sql": {Data: []byte("-- nothing here\n")}},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRunnerFS(nil, persistence.DriverSQLite, files, nil).Load()
			if !errors.Is(err, ErrInvalidMigrationFile) {
				t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
			}
		})
	}

	dup := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"1_b.sql":   {Data: []byte("SELECT 2;")},
	}
	if _, err := NewRunnerFS(nil, persistence.DriverSQLite, dup, nil).Load(); !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- header\nCREATE TABLE a (id TEXT);\n\n  -- note\nCREATE INDEX i ON a(id);\n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (id TEXT)" || got[1] != "CREATE INDEX i ON a(id)" {
		t.Fatalf("unexpected statements %q", got)
	}
}
