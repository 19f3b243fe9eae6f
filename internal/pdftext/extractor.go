// Package pdftext pulls the text layer out of invoice PDFs by trying an
// ordered list of backends until enough text has been gathered.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// ErrBackendPanic wraps a panic recovered from a backend.
var ErrBackendPanic = errors.New("backend panicked")

type Config struct {
	Pdftotext       string        // binary name or absolute path; if empty -> "pdftotext"
	BackendTimeout  time.Duration // wall-clock cap per backend attempt, default 20s
	RowTolerance    float64       // Y distance treated as the same row, default 2.0
	DisableExternal bool          // skip backends that shell out
}

// Backend is one extraction strategy. Confidence is fixed per backend.
type Backend interface {
	Name() string
	Confidence() float64
	Extract(ctx context.Context, path string) (string, error)
}

// Attempt records what a single backend produced.
type Attempt struct {
	Backend  string
	Chars    int
	Err      string
	Duration time.Duration
}

type Result struct {
	Text       string
	Confidence float64
	Backend    string // empty when no backend reached the threshold
	Attempts   []Attempt
	Duration   time.Duration
}

// Readable reports whether enough text was recovered to attempt field extraction.
func (r Result) Readable() bool {
	return utf8.RuneCountInString(r.Text) >= constants.MinReadableTextLen
}

type Extractor struct {
	cfg      Config
	backends []Backend
	logger   *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 20 * time.Second
	}
	if cfg.RowTolerance <= 0 {
		cfg.RowTolerance = 2.0
	}
	e := &Extractor{cfg: cfg, logger: logger}
	e.backends = []Backend{plainTextBackend{tolerance: cfg.RowTolerance}}
	if !cfg.DisableExternal {
		e.backends = append(e.backends, layoutBackend{runner: execRunner{logger: logger}, bin: cfg.Pdftotext})
	}
	e.backends = append(e.backends, rowsBackend{tolerance: cfg.RowTolerance}, contentStreamBackend{})
	return e
}

// WithBackends replaces the backend list, keeping order.
func (e *Extractor) WithBackends(backends ...Backend) *Extractor {
	e.backends = backends
	return e
}

// Backends returns the names of the configured backends in order.
func (e *Extractor) Backends() []string {
	names := make([]string, len(e.backends))
	for i, b := range e.backends {
		names[i] = b.Name()
	}
	return names
}

// Extract never fails: backend errors, panics and timeouts count as "no text".
func (e *Extractor) Extract(ctx context.Context, path string) Result {
	start := time.Now()
	e.logger.Debug("starting text extraction", "path", path, "backends", len(e.backends))

	var res Result
	var acc strings.Builder
	for _, b := range e.backends {
		if ctx.Err() != nil {
			e.logger.Warn("text extraction cancelled", "path", path, "error", ctx.Err())
			break
		}
		t0 := time.Now()
		text, err := e.attempt(ctx, b, path)
		text = Normalize(text)
		att := Attempt{Backend: b.Name(), Chars: utf8.RuneCountInString(text), Duration: time.Since(t0)}
		if err != nil {
			att.Err = err.Error()
			e.logger.Debug("backend produced no text", "path", path, "backend", b.Name(), "error", err)
		} else if text != "" {
			if acc.Len() > 0 {
				acc.WriteByte('\n')
			}
			acc.WriteString(text)
		}
		res.Attempts = append(res.Attempts, att)

		if utf8.RuneCountInString(acc.String()) > constants.MinAcceptedTextLen {
			res.Backend = b.Name()
			res.Confidence = b.Confidence()
			break
		}
	}
	if res.Backend == "" {
		res.Confidence = constants.FallbackConfidence
	}
	res.Text = acc.String()
	res.Duration = time.Since(start)

	e.logger.Debug("text extraction done",
		"path", path,
		"backend", res.Backend,
		"chars", utf8.RuneCountInString(res.Text),
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

// attempt runs one backend under its own deadline and converts panics to errors.
// A backend that ignores ctx keeps running in its goroutine until it returns,
// but the cascade does not wait for it.
func (e *Extractor) attempt(ctx context.Context, b Backend, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.BackendTimeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("%w: %s: %v", ErrBackendPanic, b.Name(), r)}
			}
		}()
		text, err := b.Extract(ctx, path)
		ch <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		e.logger.Warn("backend timed out", "path", path, "backend", b.Name(), "timeout", e.cfg.BackendTimeout)
		return "", ctx.Err()
	case o := <-ch:
		return o.text, o.err
	}
}
