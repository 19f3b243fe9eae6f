package constants

import (
	"fmt"
	"strings"
)

// WithholdingKind identifies a tax withheld at source by the service taker.
type WithholdingKind string

const (
	MunicipalTax          WithholdingKind = "municipal-tax"           // ISS retido
	SocialIntegration     WithholdingKind = "social-integration"      // PIS/PASEP
	SocialFinancing       WithholdingKind = "social-financing"        // COFINS
	CorporateIncomeSurtax WithholdingKind = "corporate-income-surtax" // CSLL
	SocialSecurity        WithholdingKind = "social-security"         // INSS
	IncomeTax             WithholdingKind = "income-tax"              // IR / IRRF
)

var allWithholdings = []WithholdingKind{
	MunicipalTax,
	SocialIntegration,
	SocialFinancing,
	CorporateIncomeSurtax,
	SocialSecurity,
	IncomeTax,
}

// Withholdings returns every kind in display order.
func Withholdings() []WithholdingKind {
	out := make([]WithholdingKind, len(allWithholdings))
	copy(out, allWithholdings)
	return out
}

// Label is the short Brazilian name printed on invoices.
func (k WithholdingKind) Label() string {
	switch k {
	case MunicipalTax:
		return "ISS"
	case SocialIntegration:
		return "PIS"
	case SocialFinancing:
		return "COFINS"
	case CorporateIncomeSurtax:
		return "CSLL"
	case SocialSecurity:
		return "INSS"
	case IncomeTax:
		return "IR"
	}
	return string(k)
}

// ParseWithholdingKind accepts a canonical kind or the label found on invoices.
func ParseWithholdingKind(input string) (WithholdingKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]WithholdingKind{
		"iss":        MunicipalTax,
		"iss retido": MunicipalTax,
		"pis":        SocialIntegration,
		"pis/pasep":  SocialIntegration,
		"cofins":     SocialFinancing,
		"csll":       CorporateIncomeSurtax,
		"inss":       SocialSecurity,
		"ir":         IncomeTax,
		"irrf":       IncomeTax,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}
	for _, k := range allWithholdings {
		if normalized == string(k) {
			return k, true
		}
	}
	return "", false
}

// UnmarshalText accepts the same spellings as ParseWithholdingKind, so map
// keys in override files may use the printed labels.
func (k *WithholdingKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseWithholdingKind(string(text))
	if !ok {
		return fmt.Errorf("unknown withholding kind %q", text)
	}
	*k = parsed
	return nil
}
