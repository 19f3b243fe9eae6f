package server

import (
	"time"

	"github.com/joseph-ayodele/nfse-extractor/internal/export"
)

type AnalyzeRequest struct {
	Path     string `json:"path"`
	FileName string `json:"file_name,omitempty"`
}

type AnalyzeResponse struct {
	ID      string             `json:"id"`
	Invoice export.JSONInvoice `json:"invoice"`
}

type SubmitRequest struct {
	Path     string `json:"path"`
	FileName string `json:"file_name,omitempty"`
}

type SubmitResponse struct {
	JobID string `json:"job_id"`
}

type GetInvoiceRequest struct {
	ID string `json:"id"`
}

type InvoiceRecord struct {
	ID        string             `json:"id"`
	Invoice   export.JSONInvoice `json:"invoice"`
	State     string             `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type ListInvoicesRequest struct {
	StateCode string `json:"state_code,omitempty"`
	State     string `json:"state,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type ListInvoicesResponse struct {
	Invoices []InvoiceRecord `json:"invoices"`
}

type ExportInvoicesRequest struct {
	StateCode string `json:"state_code,omitempty"`
	State     string `json:"state,omitempty"`
}

type ExportInvoicesResponse struct {
	Xlsx []byte `json:"xlsx"`
}
