package fields

import "github.com/joseph-ayodele/nfse-extractor/internal/entity"

var genericISSLabels = amountPatterns(
	`\bISS\b`,
	`Imposto\s+sobre\s+Servi[çc]os`,
	`Valor\s+do?\s+ISS`,
	`Total\s+ISS`,
)

func extractGeneric(doc Document) entity.TaxDetails {
	b := entity.NewTaxBuilder()

	if v, ok := findAmount(doc.Text, genericISSLabels); ok {
		b.SetTaxValue(v)
	}
	taxedByValue(b)
	applyStatusMarkers(b, doc)

	readRate(b, doc.Text)
	readBase(b, doc.Text)
	readServiceCode(b, doc.Text)
	readWithholdings(b, doc.Text, withholdingLabels)
	return b.Build()
}
