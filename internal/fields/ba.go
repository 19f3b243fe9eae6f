package fields

import (
	"regexp"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

var (
	baISSLabels      = amountPatterns(`Valor\s+do\s+ISS`)
	reBAWithheldISS  = regexp.MustCompile(`(?i)ISS\s+RETIDO`)
	baWithholdingSet = withBAPrefix(withholdingLabels)
)

// withBAPrefix puts Salvador's "Valor X (R$)" labels ahead of the shared ones.
func withBAPrefix(shared map[constants.WithholdingKind][]amountPattern) map[constants.WithholdingKind][]amountPattern {
	own := map[constants.WithholdingKind]string{
		constants.SocialIntegration:     `Valor\s+PIS`,
		constants.SocialFinancing:       `Valor\s+COFINS`,
		constants.IncomeTax:             `Valor\s+IR`,
		constants.CorporateIncomeSurtax: `Valor\s+CSLL`,
		constants.SocialSecurity:        `Valor\s+INSS`,
	}
	out := make(map[constants.WithholdingKind][]amountPattern, len(shared))
	for kind, patterns := range shared {
		var merged []amountPattern
		if label, ok := own[kind]; ok {
			merged = append(merged, amountPatterns(label)...)
		}
		out[kind] = append(merged, patterns...)
	}
	return out
}

func extractBA(doc Document) entity.TaxDetails {
	b := entity.NewTaxBuilder()

	if v, ok := findAmount(doc.Text, baISSLabels); ok {
		b.SetTaxValue(v)
	}
	taxedByValue(b)
	applyStatusMarkers(b, doc)

	readRate(b, doc.Text)
	readBase(b, doc.Text)
	readServiceCode(b, doc.Text)
	readWithholdings(b, doc.Text, baWithholdingSet)

	if reBAWithheldISS.MatchString(doc.Text) {
		b.AddNote(NoteWithheldISS)
	}
	return b.Build()
}
