package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// BankDetails holds payment instructions found in the service description.
type BankDetails struct {
	Bank    string `json:"bank,omitempty" yaml:"bank"`
	Branch  string `json:"branch,omitempty" yaml:"branch"`
	Account string `json:"account,omitempty" yaml:"account"`
}

func (b *BankDetails) IsEmpty() bool {
	return b == nil || (b.Bank == "" && b.Branch == "" && b.Account == "")
}

// GeneralFields are the jurisdiction-agnostic fields read from a document.
// Empty strings and nil values mean "not found"; defaults are applied by the assembler.
type GeneralFields struct {
	Number           string
	VerificationCode string
	Series           string
	ProviderName     string
	ProviderTaxID    string
	ClientName       string
	ClientTaxID      string
	IssueDate        string
	DueDate          string
	CompetencePeriod string
	TotalValue       *decimal.Decimal
	ServiceValue     *decimal.Decimal
	NetValue         *decimal.Decimal
	Description      string
	Bank             *BankDetails
}

// Invoice is the assembled result of one analysis.
type Invoice struct {
	Number           string `json:"number"`
	VerificationCode string `json:"verification_code"`
	Series           string `json:"series"`

	StateCode    string `json:"state_code"`
	Municipality string `json:"municipality"`

	ProviderName  string `json:"provider_name"`
	ProviderTaxID string `json:"provider_tax_id,omitempty"`
	ClientName    string `json:"client_name"`
	ClientTaxID   string `json:"client_tax_id,omitempty"`

	IssueDate        string `json:"issue_date"`
	DueDate          string `json:"due_date,omitempty"`
	CompetencePeriod string `json:"competence_period,omitempty"`

	TotalValue   decimal.Decimal `json:"total_value"`
	ServiceValue decimal.Decimal `json:"service_value"`
	NetValue     decimal.Decimal `json:"net_value"`

	Tax TaxDetails `json:"tax_details"`

	InvoiceType    string       `json:"invoice_type"`
	Confidence     float64      `json:"extraction_confidence"`
	DetectedFormat string       `json:"detected_format"`
	Bank           *BankDetails `json:"bank_details,omitempty"`
	Description    string       `json:"description,omitempty"`

	SourceFile   string                  `json:"source_file,omitempty"`
	SourceSHA256 string                  `json:"source_sha256,omitempty"`
	State        constants.AnalysisState `json:"state"`
	AnalyzedAt   time.Time               `json:"analyzed_at"`
}

// IsError reports whether the invoice is the degraded result of an unreadable document.
func (i *Invoice) IsError() bool {
	return i.StateCode == constants.ErrorReading
}

// IsOverride reports whether the invoice came from the override table.
func (i *Invoice) IsOverride() bool {
	return i.DetectedFormat == constants.FormatOverride
}
