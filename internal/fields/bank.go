package fields

import (
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

var (
	bankPatterns = compileAll(
		`(?i)Banco[:\s]*([^\n,(]+)`,
	)
	branchPatterns = compileAll(
		`(?i)Ag[êe]ncia[:\s]*(\d+(?:-\d)?)`,
		`\bAG[:\s]*(\d+(?:-\d)?)`,
	)
	accountPatterns = compileAll(
		`(?i)Conta[:\s]*(\d+(?:-\d)?)`,
		`\bCC[:\s]*(\d[\d\-]*)`,
	)
)

// ExtractBank reads payment instructions written in a service description.
func ExtractBank(description string) *entity.BankDetails {
	var b entity.BankDetails
	if v, _, ok := firstSubmatch(description, bankPatterns); ok {
		b.Bank = strings.TrimSpace(v)
	}
	if v, _, ok := firstSubmatch(description, branchPatterns); ok {
		b.Branch = v
	}
	if v, _, ok := firstSubmatch(description, accountPatterns); ok {
		b.Account = v
	}
	return &b
}
