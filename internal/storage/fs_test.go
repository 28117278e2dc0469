package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempData(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempData(t)
	content := []byte("event: hello\ndate: 2022-05-03\n")
	if err := s.Write("2022-05-03-event.yaml", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2022-05-03-event.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempData(t)
	if err := s.Write("archive/2021/2021-01-01-note.yaml", []byte("event: deep\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("archive/2021/2021-01-01-note.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "event: deep\n" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempData(t)
	_ = s.Write("2022-05-03-task.yaml", []byte("event: bye\n"))
	if err := s.Delete("2022-05-03-task.yaml"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("2022-05-03-task.yaml"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList(t *testing.T) {
	s := tempData(t)
	_ = s.Write("2022-05-03-task.yaml", []byte("a"))
	_ = s.Write("sub/2022-05-04-note.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not a record"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempData(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.yaml",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Overwrites go through tmp file + rename, so a reader never sees a
	// partially written record.
	s := tempData(t)
	original := []byte("event: original\n")
	_ = s.Write("2022-05-03-task.yaml", original)

	updated := []byte("event: updated\n")
	if err := s.Write("2022-05-03-task.yaml", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("2022-05-03-task.yaml")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".dagaz-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/dagaz-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "dagaz-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
