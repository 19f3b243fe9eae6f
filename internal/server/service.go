// Package server exposes invoice analysis over gRPC. Messages are plain Go
// structs carried by a JSON codec, so no generated stubs are involved.
package server

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/async"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nfse.v1.InvoiceService"

// MaxListLimit caps ListInvoices page size.
const MaxListLimit = 500

// Processor analyzes and stores one document.
type Processor interface {
	Process(ctx context.Context, path, fileName string) (uuid.UUID, entity.Invoice, error)
}

// Exporter renders stored invoices as a workbook.
type Exporter interface {
	ExportXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error)
}

type InvoiceService struct {
	processor Processor
	invoices  repository.InvoiceRepository
	exporter  Exporter
	queue     async.Queue
	logger    *slog.Logger
}

// NewInvoiceService wires the handlers. queue may be nil, in which case
// Submit is rejected as unavailable.
func NewInvoiceService(processor Processor, invoices repository.InvoiceRepository, exporter Exporter, queue async.Queue, logger *slog.Logger) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{processor: processor, invoices: invoices, exporter: exporter, queue: queue, logger: logger}
}

// Analyze processes a document synchronously and returns the stored invoice.
func (s *InvoiceService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	path := strings.TrimSpace(req.Path)
	if err := common.NewValidator().Field("path", path, common.Required).Err("BAD_REQUEST"); err != nil {
		return nil, common.ToStatus(err)
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = filepath.Base(path)
	}

	id, inv, err := s.processor.Process(ctx, path, fileName)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Warn("server.analyze.failed", "path", path, "err", err)
		return nil, common.ToStatus(err)
	}
	return &AnalyzeResponse{ID: id.String(), Invoice: export.NewJSONInvoice(inv)}, nil
}

// Submit queues a document for background analysis.
func (s *InvoiceService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	if s.queue == nil {
		return nil, status.Error(codes.Unavailable, "background queue disabled")
	}
	path := strings.TrimSpace(req.Path)
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = filepath.Base(path)
	}
	if _, err := common.ValidateUpload(path, fileName); err != nil {
		return nil, common.ToStatus(err)
	}

	job := async.NewJob(path, fileName)
	job.RequestID = common.RequestIDFromContext(ctx)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if errors.Is(err, async.ErrQueueClosed) {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		return nil, common.ToStatus(err)
	}
	common.LoggerFromContext(ctx, s.logger).Info("server.submit.queued", "job_id", job.ID, "file", fileName)
	return &SubmitResponse{JobID: job.ID.String()}, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, req *GetInvoiceRequest) (*InvoiceRecord, error) {
	raw := strings.TrimSpace(req.ID)
	if err := common.NewValidator().Field("id", raw, common.Required, common.UUID).Err("BAD_REQUEST"); err != nil {
		return nil, common.ToStatus(err)
	}
	rec, err := s.invoices.Get(ctx, uuid.MustParse(raw))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := toRecord(*rec)
	return &out, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, req *ListInvoicesRequest) (*ListInvoicesResponse, error) {
	filter, err := listFilter(req.StateCode, req.State, req.Limit)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	recs, err := s.invoices.List(ctx, filter)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Error("server.list.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	out := make([]InvoiceRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecord(r))
	}
	return &ListInvoicesResponse{Invoices: out}, nil
}

func (s *InvoiceService) ExportInvoices(ctx context.Context, req *ExportInvoicesRequest) (*ExportInvoicesResponse, error) {
	filter, err := listFilter(req.StateCode, req.State, 0)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	xlsx, err := s.exporter.ExportXLSX(ctx, filter)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Error("export.xlsx.failed", "state_code", filter.StateCode, "err", err)
		return nil, common.ToStatus(err)
	}
	return &ExportInvoicesResponse{Xlsx: xlsx}, nil
}

func listFilter(stateCode, state string, limit int) (repository.ListFilter, error) {
	f := repository.ListFilter{
		StateCode: strings.ToUpper(strings.TrimSpace(stateCode)),
		State:     constants.AnalysisState(strings.ToUpper(strings.TrimSpace(state))),
		Limit:     limit,
	}
	if limit < 0 || limit > MaxListLimit {
		return f, common.NewAppError("BAD_REQUEST", "limit must be between 0 and 500", common.ErrInvalidInput)
	}
	if f.State != "" && !f.State.Valid() {
		return f, common.NewAppError("BAD_REQUEST", "unknown state "+string(f.State), common.ErrInvalidInput)
	}
	return f, nil
}

func toRecord(r repository.Record) InvoiceRecord {
	return InvoiceRecord{
		ID:        r.ID.String(),
		Invoice:   export.NewJSONInvoice(r.Invoice),
		State:     string(r.Invoice.State),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Register attaches the invoice service to s.
func Register(s grpc.ServiceRegistrar, svc *InvoiceService) {
	s.RegisterService(&ServiceDesc, svc)
}
