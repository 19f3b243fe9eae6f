package fields

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/money"
)

// Notes recorded by the status markers.
const (
	NoteNonIncidence = "Não incidência de ISS"
	NoteExempt       = "Isento de ISS"
	NoteImmune       = "Imunidade tributária"
	NoteCollected    = "ISS já recolhido"
	NoteWithheldISS  = "ISS Retido na Fonte"
)

// TaxedInNote is the note confirming the service was taxed in municipality.
func TaxedInNote(municipality string) string {
	return "Tributado em " + municipality
}

var (
	reNonIncidence = regexp.MustCompile(`(?i)N[ÃA]O\s+INCID[ÊE]NCIA`)
	reExempt       = regexp.MustCompile(`(?i)\bISENT[OA]\b`)
	reImmune       = regexp.MustCompile(`(?i)\bIMUN(?:E|IDADE)\b`)

	reRateLabeled = regexp.MustCompile(`(?i)Al[íi]quota\s*(?:\(%\))?[:\s]*(\d+(?:[.,]\d+)?)`)
	reRateAny     = regexp.MustCompile(`(\d+(?:[,.]\d+)?)\s*%`)

	reServiceCode = regexp.MustCompile(`(?i)C[óo]digo\s+(?:do\s+)?Servi[çc]o[:\s]*(\d+)`)

	baseLabels = amountPatterns(
		`Base\s+de\s+C[áa]lculo`,
		`Valor\s+dos\s+Servi[çc]os`,
		`Total\s+dos\s+Servi[çc]os`,
	)
)

// withholdingLabels lists, per kind, the labels tried in order.
var withholdingLabels = map[constants.WithholdingKind][]amountPattern{
	constants.SocialIntegration:     amountPatterns(`\b(?:Retenção\s+)?PIS\b`, `PIS/PASEP`),
	constants.SocialFinancing:       amountPatterns(`\b(?:Retenção\s+)?COFINS\b`),
	constants.CorporateIncomeSurtax: amountPatterns(`\b(?:Retenção\s+)?CSLL\b`),
	constants.IncomeTax:             amountPatterns(`\b(?:Retenção\s+)?(?:IRRF|IR)\b`, `Imposto\s+de\s+Renda`),
	constants.SocialSecurity:        amountPatterns(`\b(?:Retenção\s+)?INSS\b`),
	constants.MunicipalTax:          amountPatterns(`Retenção\s+ISS`, `ISS\s+Retido`),
}

// applyStatusMarkers settles the taxed flag from explicit wording. Markers are
// checked in a fixed order and only the first one found applies.
func applyStatusMarkers(b *entity.TaxBuilder, doc Document) {
	if doc.knownMunicipality() {
		re := regexp.MustCompile(`(?i)Tributado\s+em\s+` + regexp.QuoteMeta(doc.Municipality))
		if re.MatchString(doc.Text) {
			b.SetTaxed(true).AddNote(TaxedInNote(doc.Municipality))
			return
		}
	}
	switch {
	case reNonIncidence.MatchString(doc.Text):
		b.SetTaxed(false).AddNote(NoteNonIncidence)
	case reExempt.MatchString(doc.Text):
		b.SetTaxed(false).AddNote(NoteExempt)
	case reImmune.MatchString(doc.Text):
		b.SetTaxed(false).AddNote(NoteImmune)
	}
}

// taxedByValue is the default status before markers: taxed iff ISS > 0.
func taxedByValue(b *entity.TaxBuilder) {
	v := b.TaxValue()
	b.SetTaxed(v != nil && v.IsPositive())
}

func readRate(b *entity.TaxBuilder, text string) {
	for _, re := range []*regexp.Regexp{reRateLabeled, reRateAny} {
		if m := re.FindStringSubmatch(text); m != nil {
			b.SetTaxRate(money.ParsePercent(m[1]))
			return
		}
	}
}

func readBase(b *entity.TaxBuilder, text string) {
	if v, ok := findAmount(text, baseLabels); ok {
		b.SetTaxBase(v)
	}
}

func readServiceCode(b *entity.TaxBuilder, text string) {
	m := reServiceCode.FindStringSubmatch(text)
	if m == nil {
		return
	}
	b.SetService(m[1], ServiceDescription(m[1]))
}

func readWithholdings(b *entity.TaxBuilder, text string, labels map[constants.WithholdingKind][]amountPattern) {
	for _, kind := range constants.Withholdings() {
		patterns, ok := labels[kind]
		if !ok {
			continue
		}
		if v, found := findAmount(text, patterns); found {
			b.SetWithholding(kind, v)
		}
	}
}

var reCurrencyAmount = regexp.MustCompile(`R\$\s*(\d[\d.,]*)`)

// tabularISS reads the ISS from the row under a "Valor do ISS" header, where
// the columns are deductions, rate, credit, ISS and withholding. The ISS is
// the 4th currency figure, not the first.
func tabularISS(lines []string) (decimal.Decimal, bool) {
	for i, line := range lines {
		if !strings.Contains(line, "Valor do ISS") || i+1 >= len(lines) {
			continue
		}
		values := reCurrencyAmount.FindAllStringSubmatch(lines[i+1], -1)
		if len(values) >= 4 {
			return parseAmount(values[3][1]), true
		}
	}
	return decimal.Zero, false
}
