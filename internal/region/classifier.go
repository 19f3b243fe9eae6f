// Package region infers the issuing state and municipality of an NFS-e from its text.
package region

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// Signal weights.
const (
	HeaderWeight       = 10
	MunicipalityWeight = 5
	StateCodeWeight    = 3

	// LowConfidenceScore is the score under which the CEP fallback is tried.
	LowConfidenceScore = 5
)

// Classification methods.
const (
	MethodPatterns   = "patterns"
	MethodPostalCode = "postal-code"
	MethodNone       = "none"
)

var reCEP = regexp.MustCompile(`CEP:?\s*(\d{5}-?\d{3})`)

type Result struct {
	Code         string
	Municipality string
	Score        int
	Method       string
}

// Known reports whether a jurisdiction was identified.
func (r Result) Known() bool { return r.Code != constants.Unknown }

type Classifier struct {
	entries []entry
	byCode  map[string]Jurisdiction
	logger  *slog.Logger
}

// entry pairs a jurisdiction with its municipality names upper-cased and folded.
type entry struct {
	Jurisdiction
	folded []string
}

// NewClassifier builds a classifier over table; a nil table uses the defaults.
func NewClassifier(table []Jurisdiction, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if table == nil {
		table = DefaultJurisdictions()
	}
	c := &Classifier{
		byCode: make(map[string]Jurisdiction, len(table)),
		logger: logger,
	}
	upper := newUpper()
	for _, j := range table {
		e := entry{Jurisdiction: j}
		for _, m := range j.Municipalities {
			e.folded = append(e.folded, foldAccents(upper.String(m)))
		}
		c.entries = append(c.entries, e)
		c.byCode[j.Code] = j
	}
	return c
}

// Classify scores every jurisdiction against text. Equal scores are broken by
// the lexical order of the state code, so the result does not depend on table order.
func (c *Classifier) Classify(text string) Result {
	upper := newUpper().String(text)
	folded := foldAccents(upper)

	best := Result{Code: constants.Unknown, Municipality: constants.Unknown, Method: MethodNone}
	for _, j := range c.entries {
		s, municipality := scoreJurisdiction(j, upper, folded)
		if s == 0 {
			continue
		}
		if s > best.Score || (s == best.Score && j.Code < best.Code) {
			if municipality == "" {
				municipality = j.DefaultMunicipality()
			}
			best = Result{Code: j.Code, Municipality: municipality, Score: s, Method: MethodPatterns}
		}
	}

	if best.Score < LowConfidenceScore {
		if r, ok := c.byPostalCode(upper, best.Score); ok {
			c.logger.Debug("classified by postal code", "state", r.Code, "pattern_score", best.Score)
			return r
		}
	}
	return best
}

func scoreJurisdiction(j entry, upper, folded string) (int, string) {
	score := 0
	for _, re := range j.Patterns {
		if re.MatchString(upper) {
			score += HeaderWeight
		}
	}

	municipality := ""
	for i, m := range j.folded {
		if strings.Contains(folded, m) {
			score += MunicipalityWeight
			municipality = j.Municipalities[i]
			break
		}
	}

	if strings.Contains(upper, j.Code) || strings.Contains(upper, "-"+j.Code) {
		score += StateCodeWeight
	}
	return score, municipality
}

func (c *Classifier) byPostalCode(upper string, score int) (Result, bool) {
	m := reCEP.FindStringSubmatch(upper)
	if m == nil {
		return Result{}, false
	}
	code, ok := postalPrefix[m[1][0]]
	if !ok {
		return Result{}, false
	}
	municipality := constants.Unknown
	if j, ok := c.byCode[code]; ok && j.DefaultMunicipality() != "" {
		municipality = j.DefaultMunicipality()
	}
	return Result{Code: code, Municipality: municipality, Score: score, Method: MethodPostalCode}, true
}

// newUpper returns a fresh caser; casers keep state and are not shared across goroutines.
func newUpper() cases.Caser {
	return cases.Upper(language.BrazilianPortuguese)
}

// foldAccents strips combining marks so "SAO PAULO" matches "SÃO PAULO".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
