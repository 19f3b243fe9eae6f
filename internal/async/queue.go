package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting for analysis.
type Job struct {
	ID          uuid.UUID
	Path        string
	FileName    string
	RequestID   string // set when the job came from an RPC
	SubmittedAt time.Time
}

func NewJob(path, fileName string) Job {
	return Job{ID: uuid.New(), Path: path, FileName: fileName, SubmittedAt: time.Now().UTC()}
}

// JobProcessor is satisfied by *core.Processor.
type JobProcessor interface {
	Process(ctx context.Context, path, fileName string) (uuid.UUID, entity.Invoice, error)
}

// Outcome reports a finished job to the optional result callback.
type Outcome struct {
	Job       Job
	InvoiceID uuid.UUID
	Invoice   entity.Invoice
	Err       error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// ProcessorQueue runs jobs on a fixed pool of workers, each under its own timeout.
type ProcessorQueue struct {
	proc     JobProcessor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHandler is called from worker goroutines after every job.
func WithResultHandler(fn func(Outcome)) Option {
	return func(q *ProcessorQueue) {
		q.onResult = fn
	}
}

func NewProcessorQueue(proc JobProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	id, inv, err := q.proc.Process(ctx, job.Path, job.FileName)
	cancel()

	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "request_id", job.RequestID,
			"file", job.FileName, "error", err)
	} else {
		q.logger.Info("queue.job.done", "worker_id", workerID, "job_id", job.ID, "request_id", job.RequestID, "invoice_id", id,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	if q.onResult != nil {
		q.onResult(Outcome{Job: job, InvoiceID: id, Invoice: inv, Err: err})
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "job_id", job.ID, "file", job.FileName)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
