package region

import (
	"fmt"
	"regexp"
)

// Jurisdiction is one state entry of the classification table.
type Jurisdiction struct {
	Code           string
	Patterns       []*regexp.Regexp
	Municipalities []string // first entry is the default municipality
}

// NewJurisdiction compiles patterns case-insensitively.
func NewJurisdiction(code string, patterns []string, municipalities ...string) (Jurisdiction, error) {
	j := Jurisdiction{Code: code, Municipalities: municipalities}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return Jurisdiction{}, fmt.Errorf("jurisdiction %s: pattern %q: %w", code, p, err)
		}
		j.Patterns = append(j.Patterns, re)
	}
	return j, nil
}

func mustJurisdiction(code string, patterns []string, municipalities ...string) Jurisdiction {
	j, err := NewJurisdiction(code, patterns, municipalities...)
	if err != nil {
		panic(err)
	}
	return j
}

// DefaultMunicipality is the municipality assumed when none is named in the text.
func (j Jurisdiction) DefaultMunicipality() string {
	if len(j.Municipalities) == 0 {
		return ""
	}
	return j.Municipalities[0]
}

var defaultTable = []Jurisdiction{
	mustJurisdiction("SP", []string{
		`PREFEITURA DO MUNICÍPIO DE SÃO PAULO`,
		`Secretaria Municipal de Finanças`,
		`SÃO PAULO\s*-?\s*SP`,
		`Município:\s*São Paulo`,
		`CEP:?\s*0[0-9]{4}-?[0-9]{3}`,
	}, "São Paulo", "Campinas", "Santos", "Guarulhos"),
	mustJurisdiction("RJ", []string{
		`PREFEITURA DA CIDADE DO RIO DE JANEIRO`,
		`RIO DE JANEIRO\s*-?\s*RJ`,
		`Município:\s*Rio de Janeiro`,
		`CEP:?\s*2[0-9]{4}-?[0-9]{3}`,
	}, "Rio de Janeiro", "Niterói", "São Gonçalo"),
	mustJurisdiction("MG", []string{
		`PREFEITURA DE BELO HORIZONTE`,
		`BELO HORIZONTE\s*-?\s*MG`,
		`MINAS GERAIS`,
		`CEP:?\s*3[0-9]{4}-?[0-9]{3}`,
	}, "Belo Horizonte", "Uberlândia", "Contagem"),
	mustJurisdiction("BA", []string{
		`PREFEITURA MUNICIPAL DO SALVADOR`,
		`SALVADOR\s*-?\s*BA`,
		`BAHIA`,
		`Nota Salvador`,
		`CEP:?\s*4[0-1][0-9]{3}-?[0-9]{3}`,
	}, "Salvador", "Feira de Santana", "Vitória da Conquista"),
	mustJurisdiction("PR", []string{
		`PREFEITURA MUNICIPAL DE CURITIBA`,
		`CURITIBA\s*-?\s*PR`,
		`PARANÁ`,
		`CEP:?\s*8[0-9]{4}-?[0-9]{3}`,
	}, "Curitiba", "Londrina", "Maringá"),
	mustJurisdiction("RS", []string{
		`PORTO ALEGRE\s*-?\s*RS`,
		`RIO GRANDE DO SUL`,
		`CEP:?\s*9[0-9]{4}-?[0-9]{3}`,
	}, "Porto Alegre", "Caxias do Sul", "Pelotas"),
	mustJurisdiction("SC", []string{
		`FLORIANÓPOLIS\s*-?\s*SC`,
		`SANTA CATARINA`,
		`CEP:?\s*8[89][0-9]{3}-?[0-9]{3}`,
	}, "Florianópolis", "Joinville", "Blumenau"),
}

// DefaultJurisdictions returns a copy of the built-in table.
func DefaultJurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, len(defaultTable))
	copy(out, defaultTable)
	return out
}

// postalPrefix maps the first CEP digit to a state code. Ranges are coarse:
// 8 covers both PR and SC, and 5/6/7 point at states without a table entry.
var postalPrefix = map[byte]string{
	'0': "SP", '1': "SP",
	'2': "RJ",
	'3': "MG",
	'4': "BA",
	'5': "PE",
	'6': "CE",
	'7': "DF",
	'8': "PR",
	'9': "RS",
}
