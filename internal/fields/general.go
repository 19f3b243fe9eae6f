package fields

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

var (
	numberPatterns = compileAll(
		`(?i)N[úu]mero\s*(?:da\s*)?(?:Nota|NF[S-]?e?)[:\s]*(\d+)`,
		`(?i)NFS-e\s*N[°º]?\s*(\d+)`,
		`(?i)Nota\s*Fiscal\s*N[°º]?\s*(\d+)`,
		`(?i)N[°ºo]\s*:\s*(\d+)`,
	)
	verificationPatterns = compileAll(
		`(?i)C[óo]digo\s*(?:de\s*)?Verifica[çc][ãa]o[:\s]*([A-Z0-9\-]+)`,
		`(?i)Autenticidade[:\s]*([A-Z0-9\-]+)`,
		`(?i)Chave\s*(?:de\s*)?Acesso[:\s]*([A-Z0-9\-]+)`,
		`(?s)Verifica[çc][ãa]o.{0,40}?\b([A-Z0-9]{4}-[A-Z0-9]{4})\b`,
	)
	reSeries = regexp.MustCompile(`(?i)\bS[ée]rie\b[:\s]*([A-Z0-9]{1,5})`)

	reProviderBlock = regexp.MustCompile(`(?is)PRESTADOR.{0,300}?(?:Nome|Raz[ãa]o\s*Social)[^:\n]*:\s*([^\n]+)`)

	providerLinePatterns = compileAll(
		`(?i)(?:Prestador|Empresa)[:\s]*([^\n]+)`,
		`(?i)Raz[ãa]o\s*Social[:\s]*([^\n]+)`,
		`(?i)Nome[:\s]*([^\n]+?)(?:CPF|CNPJ|Endereço|$)`,
	)
	clientPatterns = compileAll(
		`(?is)TOMADOR.{0,300}?(?:Nome|Raz[ãa]o\s*Social)[^:\n]*:\s*([^\n]+)`,
		`(?is)TOMADOR.*?(?:Nome|Raz[ãa]o\s*Social)[:\s]*([^\n]+)`,
		`(?i)Cliente[:\s]*([^\n]+)`,
		`(?i)Contratante[:\s]*([^\n]+)`,
	)
	reProviderSection = regexp.MustCompile(`(?i)PRESTADOR`)
	reClientSection   = regexp.MustCompile(`(?i)TOMADOR`)
	reTaxID           = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}|\d{3}\.\d{3}\.\d{3}-\d{2}`)

	totalLabels = amountPatterns(
		`VALOR\s*TOTAL\s*(?:DA\s*)?NOTA`,
		`Valor\s*Total\s*d[oa]s?\s*Servi[çc]os?`,
		`Total\s*(?:da\s*)?Nota\s*Fiscal`,
		`Total\s*Geral`,
		`Valor\s*L[íi]quido`,
	)
	serviceValueLabels = amountPatterns(`Valor\s*(?:Total\s*)?(?:d[oa]s?\s*)?Servi[çc]os?`)
	netValueLabels     = amountPatterns(`Valor\s*L[íi]quido`)

	issueDatePatterns = compileAll(
		`(?i)(?:Data\s*(?:de\s*)?)?Emiss[ãa]o[:\s]*(\d{2}/\d{2}/\d{4})`,
		`(?i)Emitida?\s*em[:\s]*(\d{2}/\d{2}/\d{4})`,
		`(?i)Data[:\s]*(\d{2}/\d{2}/\d{4})`,
	)
	dueDatePatterns = compileAll(
		`(?i)Vencimento[:\s]*(\d{2}/\d{2}/\d{4})`,
		`(?i)Vence\s*em[:\s]*(\d{2}/\d{2}/\d{4})`,
		`(?i)Data\s*(?:de\s*)?Vencimento[:\s]*(\d{2}/\d{2}/\d{4})`,
		`(?i)VENC[A-Z]*\s+(\d{2}/\d{2}/\d{4})`,
		`(?i)VENC\s*(\d{2}[./]\d{2})`,
	)
	reCompetence = regexp.MustCompile(`(?i)Compet[êe]ncia[:\s]*(\d{2}/\d{4})`)

	descriptionPatterns = compileAll(
		`(?i)(?:Discrimina[çc][ãa]o|Descri[çc][ãa]o)\s*(?:dos?\s*)?Servi[çc]os?[:\s]*([^\n]+(?:\n[^\n]+)*)`,
		`(?i)Observa[çc][õo]es[:\s]*([^\n]+(?:\n[^\n]+)*)`,
	)
)

// sectionWindow bounds how far after a PRESTADOR/TOMADOR heading a tax ID is searched.
const sectionWindow = 500

// ExtractGeneral reads the jurisdiction-agnostic fields. Missing fields stay empty.
func ExtractGeneral(doc Document) entity.GeneralFields {
	text := doc.Text
	var g entity.GeneralFields

	if n, _, ok := firstSubmatch(text, numberPatterns); ok {
		g.Number = trimLeadingZeros(n)
	}
	if code, _, ok := firstSubmatch(text, verificationPatterns); ok {
		g.VerificationCode = code
	}
	if m := reSeries.FindStringSubmatch(text); m != nil {
		g.Series = m[1]
	}

	g.ProviderName = providerName(text)
	g.ProviderTaxID = taxIDAfter(text, reProviderSection)
	if name, _, ok := firstSubmatch(text, clientPatterns); ok {
		g.ClientName = strings.TrimSpace(name)
	}
	g.ClientTaxID = taxIDAfter(text, reClientSection)

	if v, ok := findAmount(text, totalLabels); ok {
		g.TotalValue = &v
	}
	if v, ok := findAmount(text, serviceValueLabels); ok {
		g.ServiceValue = &v
	}
	if v, ok := findAmount(text, netValueLabels); ok {
		g.NetValue = &v
	}

	if d, _, ok := firstSubmatch(text, issueDatePatterns); ok {
		g.IssueDate = d
	}
	if d, _, ok := firstSubmatch(text, dueDatePatterns); ok {
		g.DueDate = d
	}
	if m := reCompetence.FindStringSubmatch(text); m != nil {
		g.CompetencePeriod = m[1]
	}

	if desc, _, ok := firstSubmatch(text, descriptionPatterns); ok {
		g.Description = truncateRunes(strings.TrimSpace(desc), constants.MaxDescriptionLen)
		if bank := ExtractBank(g.Description); !bank.IsEmpty() {
			g.Bank = bank
		}
	}
	return g
}

// providerName prefers a name labelled inside the PRESTADOR block. The loose
// patterns only count when PRESTADOR appears close before the match.
func providerName(text string) string {
	if m := reProviderBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, re := range providerLinePatterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		end := loc[0] + 200
		if end > len(text) {
			end = len(text)
		}
		if strings.Contains(strings.ToUpper(text[:end]), "PRESTADOR") {
			return strings.TrimSpace(text[loc[2]:loc[3]])
		}
	}
	return ""
}

func taxIDAfter(text string, section *regexp.Regexp) string {
	loc := section.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	end := loc[0] + sectionWindow
	if end > len(text) {
		end = len(text)
	}
	return reTaxID.FindString(text[loc[0]:end])
}

func trimLeadingZeros(n string) string {
	t := strings.TrimLeft(n, "0")
	if t == "" && n != "" {
		return "0"
	}
	return t
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
