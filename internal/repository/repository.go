package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

const invoicesTable = "invoices"

// Record is a stored analysis. A document is stored once per content hash;
// re-analysing it replaces the invoice and keeps the ID.
type Record struct {
	ID        uuid.UUID
	Invoice   entity.Invoice
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	StateCode string
	State     constants.AnalysisState
	Limit     int
}

type InvoiceRepository interface {
	Save(ctx context.Context, inv *entity.Invoice) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	GetBySHA256(ctx context.Context, sum string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}

// columns written on every save, in insert order after "id".
var savedColumns = []string{
	"source_sha256", "source_file", "number", "state_code", "municipality",
	"provider_name", "client_name", "issue_date", "total_value", "tax_value",
	"is_taxed", "confidence", "detected_format", "state", "payload",
	"analyzed_at", "updated_at",
}

var selectColumns = []string{"id", "payload", "created_at", "updated_at"}

// row flattens an invoice into column values. Money is stored as decimal
// strings so no precision is lost in either database.
func row(inv *entity.Invoice) ([]any, error) {
	if inv.SourceSHA256 == "" {
		return nil, common.NewAppError("REPOSITORY_ERROR", "invoice has no content hash", common.ErrInvalidInput)
	}
	payload, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encode invoice: %w", err)
	}
	taxValue := ""
	if inv.Tax.TaxValue != nil {
		taxValue = inv.Tax.TaxValue.String()
	}
	return []any{
		inv.SourceSHA256, inv.SourceFile, inv.Number, inv.StateCode, inv.Municipality,
		inv.ProviderName, inv.ClientName, inv.IssueDate, inv.TotalValue.String(), taxValue,
		inv.Tax.IsTaxed, inv.Confidence, inv.DetectedFormat, string(inv.State), string(payload),
		inv.AnalyzedAt.UTC(), time.Now().UTC(),
	}, nil
}

func decodePayload(payload string) (entity.Invoice, error) {
	var inv entity.Invoice
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		return entity.Invoice{}, fmt.Errorf("decode invoice: %w", err)
	}
	return inv, nil
}

func notFound(what string) error {
	return common.NewAppError("NOT_FOUND", what, common.ErrNotFound)
}
