package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

type fakeProcessor struct {
	mu        sync.Mutex
	seen      []string
	deadlines int
	fail      map[string]bool
}

func (f *fakeProcessor) Process(ctx context.Context, path, fileName string) (uuid.UUID, entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, fileName)
	if _, ok := ctx.Deadline(); ok {
		f.deadlines++
	}
	if f.fail[fileName] {
		return uuid.Nil, entity.Invoice{}, errors.New("boom")
	}
	return uuid.New(), entity.Invoice{SourceFile: fileName}, nil
}

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{"bad.pdf": true}}
	var mu sync.Mutex
	var outcomes []Outcome
	q := NewProcessorQueue(proc, nil,
		WithWorkers(2),
		WithQueueSize(1),
		WithProcessTimeout(time.Second),
		WithResultHandler(func(o Outcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		}),
	)

	names := []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf", "d.pdf"}
	for _, n := range names {
		if err := q.Enqueue(context.Background(), NewJob("/tmp/"+n, n)); err != nil {
			t.Fatalf("Enqueue(%s): %v", n, err)
		}
	}
	q.Shutdown(context.Background())

	if len(proc.seen) != len(names) {
		t.Fatalf("processed %d jobs, want %d", len(proc.seen), len(names))
	}
	if proc.deadlines != len(names) {
		t.Fatalf("%d jobs ran with a deadline, want %d", proc.deadlines, len(names))
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if o.Job.FileName != "bad.pdf" {
				t.Fatalf("unexpected failure for %s", o.Job.FileName)
			}
		}
	}
	if len(outcomes) != len(names) || failed != 1 {
		t.Fatalf("outcomes = %d, failed = %d", len(outcomes), failed)
	}
}

func TestProcessorQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), NewJob("/tmp/x.pdf", "x.pdf"))
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

type blockingProcessor struct{ release chan struct{} }

func (b *blockingProcessor) Process(ctx context.Context, _, _ string) (uuid.UUID, entity.Invoice, error) {
	<-b.release
	return uuid.Nil, entity.Invoice{}, nil
}

func TestProcessorQueue_EnqueueHonoursContext(t *testing.T) {
	proc := &blockingProcessor{release: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(proc.release)
		q.Shutdown(context.Background())
	}()

	// one job held by the worker, one filling the buffer
	_ = q.Enqueue(context.Background(), NewJob("/tmp/1.pdf", "1.pdf"))
	_ = q.Enqueue(context.Background(), NewJob("/tmp/2.pdf", "2.pdf"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// the buffer may still hold a slot if the worker has not picked up job 1 yet
	err := q.Enqueue(ctx, NewJob("/tmp/3.pdf", "3.pdf"))
	if err == nil {
		err = q.Enqueue(ctx, NewJob("/tmp/4.pdf", "4.pdf"))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
