package fields

import (
	"regexp"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

var (
	spISSLabels = amountPatterns(
		`Valor\s+do\s+ISS`,
		`Valor\s+ISS`,
		`ISS\s+R\$`,
		`Imposto\s+sobre\s+Servi[çc]os`,
		`Total\s+ISS`,
	)
	reSPCollected = regexp.MustCompile(`(?i)O\s+ISS\s+referente\s+a\s+esta\s+NFS-e\s+foi\s+recolhido`)
)

// extractSP reads São Paulo layouts, where the ISS sits in a table row below
// its header rather than beside its label.
func extractSP(doc Document) entity.TaxDetails {
	b := entity.NewTaxBuilder()

	iss, found := tabularISS(doc.Lines)
	if !iss.IsPositive() {
		if v, ok := findAmount(doc.Text, spISSLabels); ok {
			iss, found = v, true
		}
	}
	if found {
		b.SetTaxValue(iss)
	}
	taxedByValue(b)
	applyStatusMarkers(b, doc)

	readRate(b, doc.Text)
	readBase(b, doc.Text)
	readServiceCode(b, doc.Text)
	readWithholdings(b, doc.Text, withholdingLabels)

	if reSPCollected.MatchString(doc.Text) {
		b.AddNote(NoteCollected)
	}
	return b.Build()
}
