package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/bibkit/pica/internal/types"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite://" + filepath.Join(t.TempDir(), "pica.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	return db
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	if _, err := Open("mysql://localhost/pica"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}

	statuses, err := MigrateStatus(db)
	if err != nil {
		t.Fatalf("MigrateStatus: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("no migrations found")
	}
	for _, s := range statuses {
		if !s.Applied {
			t.Errorf("migration %s not applied", s.ID)
		}
	}
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec("UPDATE migrations SET checksum = 'tampered'"); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	err := MigrateUp(db)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("MigrateUp = %v, want checksum mismatch", err)
	}
}

func TestStore_RunLifecycle(t *testing.T) {
	db := openTestDB(t)
	s, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := s.BeginRun("select", "003@.0, 028A.a")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if _, err := types.ParseRunID(string(id)); err != nil {
		t.Fatalf("BeginRun returned malformed ID %q: %v", id, err)
	}

	if err := s.AddRow(id, 0, []string{"123456789X", "Lovelace"}); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if err := s.AddFrequency(id, "Lovelace", 3); err != nil {
		t.Fatalf("AddFrequency: %v", err)
	}
	if err := s.AddInvalid(id, 7, "expected subfield code", []byte("003@ \x1ebad\n")); err != nil {
		t.Fatalf("AddInvalid: %v", err)
	}
	if err := s.FinishRun(id, RunCounts{Read: 10, Matched: 1, Invalid: 1}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	var cells int
	if err := db.Get(&cells, "SELECT COUNT(*) FROM selected_rows WHERE run_id = ?", string(id)); err != nil {
		t.Fatalf("count cells: %v", err)
	}
	if cells != 2 {
		t.Errorf("selected_rows cells = %d, want 2", cells)
	}

	var matched int64
	if err := db.Get(&matched, "SELECT records_matched FROM runs WHERE id = ?", string(id)); err != nil {
		t.Fatalf("read run: %v", err)
	}
	if matched != 1 {
		t.Errorf("records_matched = %d, want 1", matched)
	}
}
