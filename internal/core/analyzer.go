package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/fields"
	"github.com/joseph-ayodele/nfse-extractor/internal/overrides"
	"github.com/joseph-ayodele/nfse-extractor/internal/pdftext"
	"github.com/joseph-ayodele/nfse-extractor/internal/region"
)

// TextExtractor recovers the text layer of a PDF. It must not fail.
type TextExtractor interface {
	Extract(ctx context.Context, path string) pdftext.Result
}

// Classifier resolves the issuing jurisdiction of a document.
type Classifier interface {
	Classify(text string) region.Result
}

// Analyzer turns one PDF into an invoice. It keeps no per-document state,
// so a single Analyzer may be shared by concurrent callers.
type Analyzer struct {
	logger     *slog.Logger
	text       TextExtractor
	classifier Classifier
	overrides  *overrides.Table
	now        func() time.Time
}

func NewAnalyzer(logger *slog.Logger, text TextExtractor, classifier Classifier, table *overrides.Table) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger:     logger,
		text:       text,
		classifier: classifier,
		overrides:  table,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// analysis is the state of a single Analyze call.
type analysis struct {
	state constants.AnalysisState
}

func (a *analysis) advance(to constants.AnalysisState) error {
	if !constants.CanTransition(a.state, to) {
		return common.NewAppError("STATE_ERROR", fmt.Sprintf("illegal transition %s -> %s", a.state, to), common.ErrInternal)
	}
	a.state = to
	return nil
}

// Analyze reads the invoice at path. fileName is the name the document was
// submitted under; it is used for override matching and reporting.
//
// Only boundary problems are returned as errors (missing file, wrong type,
// oversized, cancelled context). Anything that goes wrong while reading the
// document yields a degraded invoice instead.
func (a *Analyzer) Analyze(ctx context.Context, path, fileName string) (entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return entity.Invoice{}, err
	}
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	if _, err := common.ValidateUpload(path, fileName); err != nil {
		return entity.Invoice{}, err
	}
	sum, err := fileSHA256(path)
	if err != nil {
		return entity.Invoice{}, common.NewAppError("READ_ERROR", "hash "+path, err)
	}

	st := &analysis{state: constants.StateNotStarted}
	logger := a.logger.With("file", fileName, "sha256", sum)

	if e, ok := a.overrides.Match(fileName, sum); ok {
		if err := st.advance(constants.StateKnownOverride); err != nil {
			return entity.Invoice{}, err
		}
		logger.Warn("analyzer.override.applied", "override_id", e.ID, "reason", e.Reason)
		inv := e.NewInvoice()
		inv.InvoiceType = InvoiceType(inv.StateCode, inv.Municipality)
		inv.DetectedFormat = constants.FormatOverride
		inv.Confidence = 1.0
		return a.finish(inv, st, fileName, sum), nil
	}

	text := a.text.Extract(ctx, path)
	if !text.Readable() {
		if err := st.advance(constants.StateUnreadable); err != nil {
			return entity.Invoice{}, err
		}
		logger.Warn("analyzer.document.unreadable", "chars", utf8.RuneCountInString(text.Text), "attempts", len(text.Attempts))
		return a.finish(ErrorInvoice(fileName), st, fileName, sum), nil
	}
	if err := st.advance(constants.StateTextExtracted); err != nil {
		return entity.Invoice{}, err
	}

	j := a.classifier.Classify(text.Text)
	if err := st.advance(constants.StateJurisdictionClassified); err != nil {
		return entity.Invoice{}, err
	}

	doc := fields.NewDocument(text.Text, j.Municipality)
	extract, extractorName := fields.ForJurisdiction(j.Code)
	tax := extract(doc)
	general := fields.ExtractGeneral(doc)
	fields.ParseFileName(fileName).Apply(&general)
	if err := st.advance(constants.StateFieldsExtracted); err != nil {
		return entity.Invoice{}, err
	}

	inv := Assemble(general, tax, j, text)
	if err := st.advance(constants.StateAssembled); err != nil {
		return entity.Invoice{}, err
	}
	logger.Info("analyzer.analysis.done",
		"state_code", inv.StateCode,
		"municipality", inv.Municipality,
		"classify_method", j.Method,
		"extractor", extractorName,
		"backend", text.Backend,
		"confidence", inv.Confidence,
		"taxed", inv.Tax.IsTaxed,
	)
	return a.finish(inv, st, fileName, sum), nil
}

func (a *Analyzer) finish(inv entity.Invoice, st *analysis, fileName, sum string) entity.Invoice {
	inv.SourceFile = fileName
	inv.SourceSHA256 = sum
	inv.State = st.state
	inv.AnalyzedAt = a.now()
	return inv
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
