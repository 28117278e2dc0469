package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"

	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/temporal"
)

type watcherEnv struct {
	db     *DB
	store  storage.Provider
	root   string
	cancel context.CancelFunc
	done   chan struct{}
}

func startWatcher(t *testing.T) *watcherEnv {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	go func() {
		defer close(done)
		_ = Watch(ctx, db, store, parser.New(temporal.NewResolver(nil), nil), root, logger, nil)
	}()

	// Give the watcher a moment to register the root dir.
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Log("watcher did not stop in time")
		}
	})

	return &watcherEnv{db: db, store: store, root: root, cancel: cancel, done: done}
}

// eventually polls cond until it returns true or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal(msg)
}

const watcherRecord = "event: Watched record\ndate: 2022-05-03\n"

func TestWatcher_NewFileIndexed(t *testing.T) {
	env := startWatcher(t)

	path := filepath.Join(env.root, "2022-05-03-task.yaml")
	if err := os.WriteFile(path, []byte(watcherRecord), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum("2022-05-03-task.yaml")
		return cs != ""
	}, "new record file was not indexed")
}

func TestWatcher_ModifiedFileReindexed(t *testing.T) {
	env := startWatcher(t)

	path := filepath.Join(env.root, "2022-05-03-note.yaml")
	if err := os.WriteFile(path, []byte(watcherRecord), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum("2022-05-03-note.yaml")
		return cs != ""
	}, "record file was not indexed")

	first, _ := env.db.GetChecksum("2022-05-03-note.yaml")
	if err := os.WriteFile(path, []byte("event: Edited record\ndate: 2022-05-04\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum("2022-05-03-note.yaml")
		return cs != "" && cs != first
	}, "modified record file was not reindexed")
}

func TestWatcher_DeletedFileRemoved(t *testing.T) {
	env := startWatcher(t)

	path := filepath.Join(env.root, "2022-05-03-gist.yaml")
	if err := os.WriteFile(path, []byte(watcherRecord), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum("2022-05-03-gist.yaml")
		return cs != ""
	}, "record file was not indexed")

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum("2022-05-03-gist.yaml")
		return cs == ""
	}, "deleted record file was not removed from index")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	env := startWatcher(t)

	sub := filepath.Join(env.root, "archive")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Small pause so the create event for the dir is processed before
	// the file lands in it.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "2022-05-03-event.yaml")
	if err := os.WriteFile(path, []byte(watcherRecord), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, func() bool {
		cs, _ := env.db.GetChecksum(filepath.Join("archive", "2022-05-03-event.yaml"))
		return cs != ""
	}, "record in new subdirectory was not indexed")
}

func TestWatcher_UnparseableFileIgnored(t *testing.T) {
	env := startWatcher(t)

	path := filepath.Join(env.root, "2022-05-03-task.yaml")
	if err := os.WriteFile(path, []byte("just some text, no event key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Nothing to wait on; give the watcher time to (not) index it.
	time.Sleep(300 * time.Millisecond)

	cs, _ := env.db.GetChecksum("2022-05-03-task.yaml")
	if cs != "" {
		t.Errorf("unparseable file was indexed, checksum %q", cs)
	}
}
