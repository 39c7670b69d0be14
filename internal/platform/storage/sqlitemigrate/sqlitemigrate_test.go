package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyMigrationsRunsInOrder(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE things (id TEXT PRIMARY KEY);")},
		"002_insert.sql": &fstest.MapFile{Data: []byte("INSERT INTO things (id) VALUES ('a');")},
	}

	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM things").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE things (id TEXT PRIMARY KEY);")},
		"002_insert.sql": &fstest.MapFile{Data: []byte("INSERT INTO things (id) VALUES ('a');")},
	}

	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyMigrations(db, migrations); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM things").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected insert to run once, got %d rows", count)
	}
}

func TestApplyMigrationsNilDB(t *testing.T) {
	if err := ApplyMigrations(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}
