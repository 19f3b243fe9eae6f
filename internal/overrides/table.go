// Package overrides holds canned invoices for known documents whose text
// cannot be extracted. Entries are matched by file name or content hash.
package overrides

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed builtin.yaml
var builtinYAML []byte

// Criteria selects the documents an entry applies to. Any configured criterion suffices.
type Criteria struct {
	FileNameContains string `json:"filename_contains,omitempty"`
	SHA256           string `json:"sha256,omitempty"`
}

// Entry is one overridden document.
type Entry struct {
	ID      string         `json:"id"`
	Reason  string         `json:"reason"`
	Match   Criteria       `json:"match"`
	Invoice entity.Invoice `json:"invoice"`
}

// NewInvoice returns a copy of the canned invoice that callers may modify.
func (e *Entry) NewInvoice() entity.Invoice {
	inv := e.Invoice
	inv.Tax = entity.NewTaxBuilderFrom(e.Invoice.Tax).Build()
	if e.Invoice.Bank != nil {
		b := *e.Invoice.Bank
		inv.Bank = &b
	}
	return inv
}

func (e *Entry) matches(upperName, sha string) bool {
	if c := e.Match.FileNameContains; c != "" && strings.Contains(upperName, strings.ToUpper(c)) {
		return true
	}
	return e.Match.SHA256 != "" && sha != "" && strings.EqualFold(e.Match.SHA256, sha)
}

type file struct {
	Overrides []Entry `json:"overrides"`
}

// Table is an ordered, read-only list of entries; the first match wins.
type Table struct {
	entries []Entry
}

// Builtin returns the table shipped with the binary.
func Builtin() *Table {
	t, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin overrides: %v", err))
	}
	return t
}

// Load returns the builtin table followed by the entries in path, if any.
func Load(path string) (*Table, error) {
	t := Builtin()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewAppError("OVERRIDES_ERROR", "read "+path, err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, err
	}
	t.entries = append(t.entries, extra.entries...)
	return t, nil
}

// Parse decodes YAML after validating it against the embedded schema.
func Parse(data []byte) (*Table, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, common.NewAppError("OVERRIDES_ERROR", "parse yaml", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, common.NewAppError("OVERRIDES_ERROR", "convert yaml", err)
	}
	if err := validate(asJSON); err != nil {
		return nil, common.NewAppError("OVERRIDES_ERROR", "invalid overrides", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}
	var f file
	if err := json.Unmarshal(asJSON, &f); err != nil {
		return nil, common.NewAppError("OVERRIDES_ERROR", "decode overrides", err)
	}
	seen := make(map[string]struct{}, len(f.Overrides))
	for _, e := range f.Overrides {
		if _, dup := seen[e.ID]; dup {
			return nil, common.NewAppError("OVERRIDES_ERROR", "duplicate id "+e.ID, common.ErrValidation)
		}
		seen[e.ID] = struct{}{}
	}
	return &Table{entries: f.Overrides}, nil
}

func validate(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("overrides.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("overrides.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return schema.Validate(v)
}

// Match returns the first entry applying to the file. fileName may be a path;
// only its base name is compared, case-insensitively.
func (t *Table) Match(fileName, sha256 string) (*Entry, bool) {
	if t == nil {
		return nil, false
	}
	upper := strings.ToUpper(filepath.Base(fileName))
	for i := range t.entries {
		if t.entries[i].matches(upper, sha256) {
			return &t.entries[i], true
		}
	}
	return nil, false
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
