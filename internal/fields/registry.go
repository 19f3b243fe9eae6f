package fields

import "github.com/joseph-ayodele/nfse-extractor/internal/entity"

// TaxExtractor reads the tax section of a document. Implementations are pure.
type TaxExtractor func(Document) entity.TaxDetails

const GenericExtractor = "generic"

var taxExtractors = map[string]TaxExtractor{
	"SP": extractSP,
	"BA": extractBA,
}

// ForJurisdiction returns the extractor registered for code and its name.
// Codes without a dedicated layout use the generic extractor.
func ForJurisdiction(code string) (TaxExtractor, string) {
	if fn, ok := taxExtractors[code]; ok {
		return fn, code
	}
	return extractGeneric, GenericExtractor
}
