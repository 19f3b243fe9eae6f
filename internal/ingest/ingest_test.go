package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/nfse-extractor/internal/async"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "a.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "2025", "08", "c.pdf"))
	touch(t, filepath.Join(root, ".cache", "d.pdf"))
	touch(t, filepath.Join(root, ".e.pdf"))

	paths, stats, err := ScanDirectory(root, true)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	want := []string{
		filepath.Join(root, "2025", "08", "c.pdf"),
		filepath.Join(root, "a.PDF"),
		filepath.Join(root, "b.pdf"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
	if stats.Matched != 3 || stats.Scanned != 4 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}

	all, _, err := ScanDirectory(root, false)
	if err != nil || len(all) != 5 {
		t.Fatalf("with hidden: %v (%v)", all, err)
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	if _, _, err := ScanDirectory(" ", false); err == nil {
		t.Fatal("blank root must fail")
	}
	if _, _, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Fatal("missing root must fail")
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "old.pdf")
	touch(t, existing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, SkipHidden: true, Debounce: 20 * time.Millisecond}, quietLogger())
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	next := func() string {
		t.Helper()
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	if got := next(); got != existing {
		t.Fatalf("initial = %s", got)
	}

	touch(t, filepath.Join(root, "ignored.txt"))
	fresh := filepath.Join(root, "new.pdf")
	touch(t, fresh)
	if got := next(); got != fresh {
		t.Fatalf("event = %s", got)
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, quietLogger()); err == nil {
		t.Fatal("expected error")
	}
}

type recordingQueue struct {
	mu     sync.Mutex
	jobs   []async.Job
	closed bool
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return async.ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	if len(q.jobs) == 2 {
		q.closed = true
	}
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func TestForward(t *testing.T) {
	paths := make(chan string, 4)
	paths <- "/in/a.pdf"
	paths <- "/in/sub/b.pdf"
	paths <- "/in/c.pdf"
	close(paths)

	q := &recordingQueue{}
	if n := Forward(context.Background(), paths, q, quietLogger()); n != 2 {
		t.Fatalf("accepted = %d", n)
	}
	if q.jobs[1].FileName != "b.pdf" || q.jobs[1].Path != "/in/sub/b.pdf" {
		t.Fatalf("job = %+v", q.jobs[1])
	}
}
