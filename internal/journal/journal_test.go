package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)

	start := time.Now().UTC().Truncate(time.Second)
	for i, kind := range []string{KindImport, KindAdd, KindLink} {
		err := db.Record(Run{
			Kind:       kind,
			PageTitle:  "Trip Notes",
			PageUID:    "pg0000001",
			Source:     "notes.md",
			Created:    i + 1,
			StartedAt:  start,
			FinishedAt: start.Add(time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := db.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].Kind != KindLink || runs[1].Kind != KindAdd {
		t.Errorf("order = %s, %s", runs[0].Kind, runs[1].Kind)
	}
	if runs[0].Created != 3 || runs[0].PageTitle != "Trip Notes" {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestRecentEmpty(t *testing.T) {
	db := testDB(t)
	runs, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %v, want none", runs)
	}
}

func TestImportedChecksums(t *testing.T) {
	db := testDB(t)

	seen, err := db.AlreadyImported("abc")
	if err != nil || seen {
		t.Fatalf("fresh checksum: seen=%v err=%v", seen, err)
	}

	if err := db.MarkImported("abc", "drop/notes.md"); err != nil {
		t.Fatalf("MarkImported: %v", err)
	}
	seen, err = db.AlreadyImported("abc")
	if err != nil || !seen {
		t.Fatalf("marked checksum: seen=%v err=%v", seen, err)
	}

	// Re-marking the same checksum is not an error.
	if err := db.MarkImported("abc", "drop/renamed.md"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
}
