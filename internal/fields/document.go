// Package fields reads invoice fields out of extracted NFS-e text.
//
// Every lookup is an ordered list of regular expressions where the first
// match wins; later patterns only cover layout variants. Nothing here fails:
// a field that cannot be read is left empty for the assembler to default.
package fields

import (
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// Document is the input shared by all extractors.
type Document struct {
	Text         string
	Lines        []string
	Municipality string // classified municipality, may be UNKNOWN
}

func NewDocument(text, municipality string) Document {
	return Document{Text: text, Lines: strings.Split(text, "\n"), Municipality: municipality}
}

func (d Document) knownMunicipality() bool {
	return d.Municipality != "" && d.Municipality != constants.Unknown
}
