package migrate_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/chatsrt/internal/migrate"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestLoad(t *testing.T) {
	all, err := migrate.New(nil, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(all) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(all))
	}
	for i, m := range all {
		if m.Version != i+1 {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
		if m.UpSQL == "" || m.DownSQL == "" {
			t.Errorf("migration %d_%s is missing SQL", m.Version, m.Name)
		}
	}
	if all[0].Name != "create_conversions" {
		t.Errorf("first migration = %q", all[0].Name)
	}
}

func TestUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	var out bytes.Buffer
	m := migrate.New(db, &out)

	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !tableExists(t, db, "conversions") || !tableExists(t, db, "chat_archives") {
		t.Fatal("expected tables after Up")
	}
	if !strings.Contains(out.String(), "up 1_create_conversions") {
		t.Errorf("missing progress output: %q", out.String())
	}

	version, dirty, err := m.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("version = %d dirty = %v, want 2 clean", version, dirty)
	}

	out.Reset()
	if err := m.Up(ctx); err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if !strings.Contains(out.String(), "No migrations to run") {
		t.Errorf("second Up output = %q", out.String())
	}

	if err := m.To(ctx, 1); err != nil {
		t.Fatalf("To(1): %v", err)
	}
	if tableExists(t, db, "chat_archives") {
		t.Error("chat_archives should be dropped")
	}
	if !tableExists(t, db, "conversions") {
		t.Error("conversions should remain")
	}

	if err := m.To(ctx, 0); err != nil {
		t.Fatalf("To(0): %v", err)
	}
	if tableExists(t, db, "conversions") {
		t.Error("conversions should be dropped")
	}
}

func TestRunAll_Dirty(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	m := migrate.New(db, nil)

	if err := m.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO schema_migrations (version, dirty) VALUES (1, 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := migrate.RunAll(ctx, db)
	if !errors.Is(err, migrate.ErrDirty) {
		t.Fatalf("expected dirty error, got %v", err)
	}
}

func TestSplitSQL(t *testing.T) {
	got := migrate.SplitSQL("CREATE TABLE a (x);\n\n  ;DROP TABLE b;  ")
	if len(got) != 2 || got[0] != "CREATE TABLE a (x)" || got[1] != "DROP TABLE b" {
		t.Errorf("SplitSQL = %q", got)
	}
}
