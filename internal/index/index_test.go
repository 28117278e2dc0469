package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "dagaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&count); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := RecordRow{
		Path:         "2022-05-03-task.yaml",
		Identifier:   "abcdef1234",
		Type:         "task",
		Event:        "Ship the report",
		Checksum:     "abc123",
		Tags:         []string{"work"},
		Relevant:     true,
		RankPriority: 10000,
		UpdatedAt:    time.Now(),
	}
	if err := db.UpsertRecord(row, "event: Ship the report"); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	cs, err := db.GetChecksum("2022-05-03-task.yaml")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetByIdentifier(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertRecord(RecordRow{
		Path: "2022-05-03-note.yaml", Identifier: "1234567890", Type: "note",
		Event: "findable", Relevant: true, UpdatedAt: time.Now(),
	}, "")

	r, err := db.GetByIdentifier("1234567890")
	if err != nil {
		t.Fatalf("GetByIdentifier: %v", err)
	}
	if r.Event != "findable" {
		t.Errorf("event = %q", r.Event)
	}

	if _, err := db.GetByIdentifier("ffffffffff"); err == nil {
		t.Error("expected error for unknown identifier")
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertRecord(RecordRow{Path: "del.yaml", Checksum: "x", UpdatedAt: time.Now()}, "body")

	if err := db.DeleteRecord("del.yaml"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	cs, _ := db.GetChecksum("del.yaml")
	if cs != "" {
		t.Errorf("deleted record still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertRecord(RecordRow{Path: "up.yaml", Event: "Old", Checksum: "1", UpdatedAt: now}, "old body")
	_ = db.UpsertRecord(RecordRow{Path: "up.yaml", Event: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("up.yaml")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListRecords_Filters(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertRecord(RecordRow{Path: "a.yaml", Type: "task", Event: "open", Relevant: true, UpdatedAt: now}, "")
	_ = db.UpsertRecord(RecordRow{Path: "b.yaml", Type: "task", Event: "done", Completed: true, Relevant: true, UpdatedAt: now}, "")
	_ = db.UpsertRecord(RecordRow{Path: "c.yaml", Type: "note", Event: "tagged", Relevant: true, Tags: []string{"work"}, UpdatedAt: now}, "")

	rows, total, err := db.ListRecords(ListQuery{Type: "task"})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Event != "open" {
		t.Errorf("default task listing = %+v (total %d)", rows, total)
	}

	_, total, _ = db.ListRecords(ListQuery{Type: "task", IncludeAll: true})
	if total != 2 {
		t.Errorf("include-all total = %d, want 2", total)
	}

	rows, _, _ = db.ListRecords(ListQuery{Tag: "work"})
	if len(rows) != 1 || rows[0].Event != "tagged" {
		t.Errorf("tag listing = %+v", rows)
	}
}

func TestListRecords_OrdersByRankThenDue(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertRecord(RecordRow{Path: "later.yaml", Type: "task", Event: "later", Due: "2022-06-10", Relevant: true, RankPriority: 10000, UpdatedAt: now}, "")
	_ = db.UpsertRecord(RecordRow{Path: "sooner.yaml", Type: "task", Event: "sooner", Due: "2022-06-01", Relevant: true, RankPriority: 10000, UpdatedAt: now}, "")
	_ = db.UpsertRecord(RecordRow{Path: "urgent.yaml", Type: "task", Event: "urgent", Relevant: true, RankPriority: 1, UpdatedAt: now}, "")

	rows, _, err := db.ListRecords(ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Event != "urgent" || rows[1].Event != "sooner" || rows[2].Event != "later" {
		t.Errorf("order = %+v", rows)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertRecord(RecordRow{Path: "s.yaml", Event: "Search Me", Checksum: "1", Relevant: true, UpdatedAt: time.Now()},
		"uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.yaml" {
		t.Errorf("search results = %+v, want 1 hit for s.yaml", results)
	}
}
