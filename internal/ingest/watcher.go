package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/async"
)

// DefaultDebounce is how long a path must stay quiet before it is emitted.
const DefaultDebounce = 500 * time.Millisecond

type WatchConfig struct {
	Roots       []string      // directories to watch, recursively
	InitialScan bool          // emit files already present at start
	SkipHidden  bool          // ignore dot files and dot directories
	Debounce    time.Duration // coalesce write bursts; zero means DefaultDebounce
}

// StartWatcher emits the path of every PDF created or rewritten below the
// roots. Both channels are closed when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.create.failed", "err", err)
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && constants.IsAllowedExt(filepath.Ext(path)) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			logger.Error("watcher.root.failed", "root", root, "err", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)
	d := newDebouncer(cfg.Debounce)

	go func() {
		defer close(errCh)
		defer close(evCh)
		defer d.stop()
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher.close.failed", "err", err)
			}
		}()

		for _, p := range initial {
			select {
			case evCh <- p:
			case <-ctx.Done():
				return
			}
		}
		logger.Info("watcher.started", "roots", cfg.Roots, "initial", len(initial))

		for {
			select {
			case <-ctx.Done():
				return
			case p := <-d.ready:
				select {
				case evCh <- p:
				case <-ctx.Done():
					return
				}
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("watcher.add.failed", "path", e.Name, "err", err)
						}
						continue
					}
				}
				if constants.IsAllowedExt(filepath.Ext(e.Name)) && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					d.touch(e.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", "err", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// debouncer delivers a path on ready once no touch happened for delay.
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	ready  chan string
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: map[string]*time.Timer{}, ready: make(chan string, 256)}
}

func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		select {
		case d.ready <- path:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for p, t := range d.timers {
		t.Stop()
		delete(d.timers, p)
	}
}

// Forward enqueues every path from paths until the channel closes or ctx is
// done. It returns how many jobs were accepted.
func Forward(ctx context.Context, paths <-chan string, q async.Queue, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	accepted := 0
	for {
		select {
		case <-ctx.Done():
			return accepted
		case p, ok := <-paths:
			if !ok {
				return accepted
			}
			job := async.NewJob(p, filepath.Base(p))
			if err := q.Enqueue(ctx, job); err != nil {
				if errors.Is(err, async.ErrQueueClosed) {
					logger.Warn("watcher.forward.closed", "path", p)
					return accepted
				}
				logger.Error("watcher.forward.failed", "path", p, "err", err)
				continue
			}
			accepted++
			logger.Debug("watcher.forward.queued", "job_id", job.ID, "path", p)
		}
	}
}
