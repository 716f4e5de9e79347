package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestDB opens a fresh database in a temp dir with a clock that advances
// one second per call, so creation order is strict.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "lectern.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	database.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return database
}

func TestNew(t *testing.T) {
	// Use temp file for test DB
	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	_ = tmpfile.Close()

	database, err := New(tmpfile.Name())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	// Verify schema initialized
	var count int
	err = database.conn.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('classes', 'sessions', 'import_log')
	`).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}

	if count != 3 {
		t.Errorf("Expected 3 tables, got %d", count)
	}
}

func TestNew_WALMode(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	err := database.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("Expected WAL mode, got %s", journalMode)
	}
}

func TestNew_ForeignKeys(t *testing.T) {
	database := newTestDB(t)

	var fkEnabled int
	err := database.conn.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	if err != nil {
		t.Fatalf("Failed to query foreign keys: %v", err)
	}

	if fkEnabled != 1 {
		t.Errorf("Expected foreign keys enabled (1), got %d", fkEnabled)
	}
}

func TestNew_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectern.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := first.CreateClass("Intro Bio", "", ""); err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}
	_ = first.Close()

	// Migrations must be idempotent on an existing database
	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	classes, err := second.ListClasses()
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) != 1 {
		t.Errorf("Expected 1 class after reopen, got %d", len(classes))
	}
}

func TestForeignKeyConstraint(t *testing.T) {
	database := newTestDB(t)

	// Insert a session for a class that does not exist
	_, err := database.Exec(`
		INSERT INTO sessions (class_id, session_id, title, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, "missing-000000", "abc", "t", "c", 1)

	if err == nil {
		t.Error("Expected foreign key constraint error, got nil")
	}
}

func TestGetStats(t *testing.T) {
	database := newTestDB(t)

	stats, err := database.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalClasses != 0 || stats.TotalSessions != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	bio, _ := database.CreateClass("Intro Bio", "", "")
	chem, _ := database.CreateClass("Chemistry", "", "")
	for _, content := range []string{"one", "two"} {
		if _, err := database.AddSession(bio.ClassID, "", content, nil); err != nil {
			t.Fatal(err)
		}
	}
	s, err := database.AddSession(chem.ClassID, "", "three", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := database.UpdateSessionSummary(chem.ClassID, s.SessionID, "sum"); err != nil {
		t.Fatal(err)
	}

	stats, err = database.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalClasses != 2 || stats.TotalSessions != 3 {
		t.Errorf("totals = %d classes / %d sessions, want 2 / 3", stats.TotalClasses, stats.TotalSessions)
	}
	if stats.Summarized != 1 || stats.Pending != 2 {
		t.Errorf("summarized/pending = %d/%d, want 1/2", stats.Summarized, stats.Pending)
	}
	if stats.ContentBytes != int64(len("one")+len("two")+len("three")) {
		t.Errorf("ContentBytes = %d", stats.ContentBytes)
	}
	if stats.BusiestClass != "Intro Bio" || stats.BusiestClassCount != 2 {
		t.Errorf("busiest = %s (%d), want Intro Bio (2)", stats.BusiestClass, stats.BusiestClassCount)
	}
	if !stats.NewestSession.After(stats.OldestSession) {
		t.Errorf("expected newest %v after oldest %v", stats.NewestSession, stats.OldestSession)
	}
}

func TestImportLog(t *testing.T) {
	database := newTestDB(t)
	class, err := database.CreateClass("Physics", "", "")
	if err != nil {
		t.Fatal(err)
	}

	done, err := database.HasImported(class.ClassID, "hash-1")
	if err != nil || done {
		t.Fatalf("HasImported() = %v, %v; want false, nil", done, err)
	}

	if err := database.RecordImport(class.ClassID, "/tmp/a.pdf", "hash-1", "", os.ErrNotExist); err != nil {
		t.Fatal(err)
	}
	done, _ = database.HasImported(class.ClassID, "hash-1")
	if done {
		t.Error("failed import must not count as imported")
	}

	if err := database.RecordImport(class.ClassID, "/tmp/a.pdf", "hash-1", "abcdef0123", nil); err != nil {
		t.Fatal(err)
	}
	done, _ = database.HasImported(class.ClassID, "hash-1")
	if !done {
		t.Error("expected successful import to be recorded")
	}

	// Deleting the class cascades to its import log
	if _, err := database.DeleteClass(class.ClassID); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM import_log`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected import_log to be empty after delete, got %d rows", n)
	}
}
