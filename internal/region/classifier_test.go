package region

import (
	"io"
	"log/slog"
	"testing"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

func newTestClassifier(table []Jurisdiction) *Classifier {
	return NewClassifier(table, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name         string
		text         string
		code         string
		municipality string
		method       string
	}{
		{
			name:         "sao paulo header",
			text:         "PREFEITURA DO MUNICÍPIO DE SÃO PAULO\nSecretaria Municipal de Finanças\nNOTA FISCAL ELETRÔNICA DE SERVIÇOS - NFS-e",
			code:         "SP",
			municipality: "São Paulo",
			method:       MethodPatterns,
		},
		{
			name:         "named municipality",
			text:         "Prefeitura Municipal de Campinas\nCampinas - SP",
			code:         "SP",
			municipality: "Campinas",
			method:       MethodPatterns,
		},
		{
			name:         "accents lost in text layer",
			text:         "Municipio de Sao Paulo - SP",
			code:         "SP",
			municipality: "São Paulo",
			method:       MethodPatterns,
		},
		{
			name:         "salvador",
			text:         "PREFEITURA MUNICIPAL DO SALVADOR\nNota Salvador\nSALVADOR - BA",
			code:         "BA",
			municipality: "Salvador",
			method:       MethodPatterns,
		},
		{
			name:         "postal code of a configured state",
			text:         "Nota fiscal de serviço\nCEP: 45000-000",
			code:         "BA",
			municipality: "Salvador",
			method:       MethodPostalCode,
		},
		{
			name:         "postal code of a state without table entry",
			text:         "Recibo de serviço\nCEP 50000-000",
			code:         "PE",
			municipality: constants.Unknown,
			method:       MethodPostalCode,
		},
		{
			name:         "nothing recognizable",
			text:         "texto sem identificacao",
			code:         constants.Unknown,
			municipality: constants.Unknown,
			method:       MethodNone,
		},
	}
	c := newTestClassifier(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.text)
			if got.Code != tc.code || got.Municipality != tc.municipality || got.Method != tc.method {
				t.Fatalf("Classify = %+v, want %s/%s via %s", got, tc.code, tc.municipality, tc.method)
			}
		})
	}
}

func TestClassifyPostalCodeFallback(t *testing.T) {
	got := newTestClassifier(nil).Classify("Documento sem cabeçalho\nCEP: 41234-567")
	if got.Code != "BA" {
		t.Fatalf("Classify = %+v, want BA", got)
	}
}

func TestClassifyScores(t *testing.T) {
	got := newTestClassifier(nil).Classify("PREFEITURA DO MUNICÍPIO DE SÃO PAULO\nSÃO PAULO - SP")
	// two headers, the municipality and the UF substring
	want := 2*HeaderWeight + MunicipalityWeight + StateCodeWeight
	if got.Score != want {
		t.Fatalf("score = %d, want %d", got.Score, want)
	}
}

func TestClassifyTieBreakIsLexical(t *testing.T) {
	text := "SANTA CATARINA\nRIO GRANDE DO SUL"
	table := DefaultJurisdictions()
	reversed := make([]Jurisdiction, len(table))
	for i, j := range table {
		reversed[len(table)-1-i] = j
	}

	a := newTestClassifier(table).Classify(text)
	b := newTestClassifier(reversed).Classify(text)
	if a.Code != "RS" || a.Municipality != "Porto Alegre" {
		t.Fatalf("tie resolved to %+v, want RS/Porto Alegre", a)
	}
	if a != b {
		t.Fatalf("result depends on table order: %+v vs %+v", a, b)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier(nil)
	text := "BELO HORIZONTE - MG\nUberlândia\nCEP 30100-000"
	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestNewJurisdictionRejectsBadPattern(t *testing.T) {
	if _, err := NewJurisdiction("XX", []string{`(`}); err == nil {
		t.Fatal("expected compile error")
	}
}
