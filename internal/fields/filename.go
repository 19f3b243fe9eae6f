package fields

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

var (
	reFileNumber = regexp.MustCompile(`(?i)\bNF[\s_\-]*(?:N[°º]?\s*)?(\d+)`)
	reFileDue    = regexp.MustCompile(`(?i)\bVENC[A-Z]*[\s_\-]*(\d{2}[./]\d{2}(?:[./]\d{4})?)`)
)

// FileNameHints are fields some issuers put in the file name,
// e.g. "NF 4550 - WEWORK - VENC 11.08.pdf".
type FileNameHints struct {
	Number  string
	DueDate string
}

func ParseFileName(name string) FileNameHints {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var h FileNameHints
	if m := reFileNumber.FindStringSubmatch(base); m != nil {
		h.Number = trimLeadingZeros(m[1])
	}
	if m := reFileDue.FindStringSubmatch(base); m != nil {
		h.DueDate = m[1]
	}
	return h
}

// Apply fills fields the document text did not provide. Text wins.
func (h FileNameHints) Apply(g *entity.GeneralFields) {
	if g.Number == "" {
		g.Number = h.Number
	}
	if g.DueDate == "" {
		g.DueDate = h.DueDate
	}
}
