package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/async"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

type fakeProcessor struct {
	id  uuid.UUID
	inv entity.Invoice
	err error
	got []string
}

func (f *fakeProcessor) Process(_ context.Context, path, fileName string) (uuid.UUID, entity.Invoice, error) {
	f.got = append(f.got, path, fileName)
	return f.id, f.inv, f.err
}

type fakeRepo struct {
	repository.InvoiceRepository
	recs   map[uuid.UUID]repository.Record
	filter repository.ListFilter
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*repository.Record, error) {
	r, ok := f.recs[id]
	if !ok {
		return nil, common.NewAppError("NOT_FOUND", "invoice "+id.String(), common.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeRepo) List(_ context.Context, filter repository.ListFilter) ([]repository.Record, error) {
	f.filter = filter
	out := make([]repository.Record, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, r)
	}
	return out, nil
}

type fakeExporter struct{ filter repository.ListFilter }

func (f *fakeExporter) ExportXLSX(_ context.Context, filter repository.ListFilter) ([]byte, error) {
	f.filter = filter
	return []byte("PK\x03\x04"), nil
}

type fakeQueue struct {
	jobs []async.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Shutdown(context.Context) {}

type fixture struct {
	client   *Client
	proc     *fakeProcessor
	repo     *fakeRepo
	exporter *fakeExporter
	queue    *fakeQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	total := decimal.RequireFromString("1500.50")
	inv := entity.Invoice{Number: "77", StateCode: "SP", Municipality: "São Paulo", TotalValue: total, State: constants.StateAssembled}
	id := uuid.New()

	fx := &fixture{
		proc:     &fakeProcessor{id: id, inv: inv},
		repo:     &fakeRepo{recs: map[uuid.UUID]repository.Record{id: {ID: id, Invoice: inv}}},
		exporter: &fakeExporter{},
		queue:    &fakeQueue{},
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	Register(srv, NewInvoiceService(fx.proc, fx.repo, fx.exporter, fx.queue, logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	fx.client = NewClient(conn)
	return fx
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAnalyze(t *testing.T) {
	fx := newFixture(t)
	resp, err := fx.client.Analyze(callCtx(t), &AnalyzeRequest{Path: "/in/2025/nota 77.pdf"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.ID != fx.proc.id.String() || resp.Invoice.Number != "77" || resp.Invoice.TotalValue != 1500.5 {
		t.Fatalf("resp = %+v", resp)
	}
	if fx.proc.got[1] != "nota 77.pdf" {
		t.Fatalf("file name = %q", fx.proc.got[1])
	}
}

func TestAnalyze_Errors(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.client.Analyze(callCtx(t), &AnalyzeRequest{Path: "  "}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("blank path: %v", err)
	}
	fx.proc.err = common.NewAppError("NOT_FOUND", "file", common.ErrNotFound)
	if _, err := fx.client.Analyze(callCtx(t), &AnalyzeRequest{Path: "/missing.pdf"}); status.Code(err) != codes.NotFound {
		t.Fatalf("missing file: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	fx := newFixture(t)
	path := filepath.Join(t.TempDir(), "nota.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := metadata.AppendToOutgoingContext(callCtx(t), RequestIDHeader, "req-42")
	resp, err := fx.client.Submit(ctx, &SubmitRequest{Path: path})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(fx.queue.jobs) != 1 || fx.queue.jobs[0].ID.String() != resp.JobID || fx.queue.jobs[0].FileName != "nota.pdf" {
		t.Fatalf("jobs = %+v resp = %+v", fx.queue.jobs, resp)
	}
	if fx.queue.jobs[0].RequestID != "req-42" {
		t.Fatalf("request id = %q", fx.queue.jobs[0].RequestID)
	}

	if _, err := fx.client.Submit(callCtx(t), &SubmitRequest{Path: path, FileName: "nota.txt"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("wrong extension: %v", err)
	}
	fx.queue.err = async.ErrQueueClosed
	if _, err := fx.client.Submit(callCtx(t), &SubmitRequest{Path: path}); status.Code(err) != codes.Unavailable {
		t.Fatalf("closed queue: %v", err)
	}
}

func TestGetInvoice(t *testing.T) {
	fx := newFixture(t)
	rec, err := fx.client.GetInvoice(callCtx(t), &GetInvoiceRequest{ID: fx.proc.id.String()})
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if rec.Invoice.StateCode != "SP" || rec.State != string(constants.StateAssembled) {
		t.Fatalf("rec = %+v", rec)
	}

	tests := []struct {
		id   string
		want codes.Code
	}{
		{"", codes.InvalidArgument},
		{"not-a-uuid", codes.InvalidArgument},
		{uuid.NewString(), codes.NotFound},
	}
	for _, tt := range tests {
		if _, err := fx.client.GetInvoice(callCtx(t), &GetInvoiceRequest{ID: tt.id}); status.Code(err) != tt.want {
			t.Errorf("GetInvoice(%q) = %v, want %s", tt.id, err, tt.want)
		}
	}
}

func TestListAndExport(t *testing.T) {
	fx := newFixture(t)
	list, err := fx.client.ListInvoices(callCtx(t), &ListInvoicesRequest{StateCode: " sp", State: "assembled", Limit: 10})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(list.Invoices) != 1 || fx.repo.filter.StateCode != "SP" || fx.repo.filter.State != constants.StateAssembled {
		t.Fatalf("list = %+v filter = %+v", list, fx.repo.filter)
	}
	if _, err := fx.client.ListInvoices(callCtx(t), &ListInvoicesRequest{State: "DONE"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad state: %v", err)
	}
	if _, err := fx.client.ListInvoices(callCtx(t), &ListInvoicesRequest{Limit: MaxListLimit + 1}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad limit: %v", err)
	}

	exp, err := fx.client.ExportInvoices(callCtx(t), &ExportInvoicesRequest{StateCode: "ba"})
	if err != nil {
		t.Fatalf("ExportInvoices: %v", err)
	}
	if string(exp.Xlsx[:2]) != "PK" || fx.exporter.filter.StateCode != "BA" {
		t.Fatalf("export = %q filter = %+v", exp.Xlsx, fx.exporter.filter)
	}
}

func TestSubmit_NoQueue(t *testing.T) {
	svc := NewInvoiceService(&fakeProcessor{}, &fakeRepo{}, &fakeExporter{}, nil, nil)
	if _, err := svc.Submit(context.Background(), &SubmitRequest{Path: "/a.pdf"}); status.Code(err) != codes.Unavailable {
		t.Fatalf("err = %v", err)
	}
}
