package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu otherwise creates a config directory under the user's home.
func init() {
	api.DisableConfigDir()
}

// Backend names double as the detected format of an invoice.
const (
	BackendPlainText     = "pdf-text"
	BackendLayout        = "pdftotext-layout"
	BackendRows          = "pdf-rows"
	BackendContentStream = "pdfcpu-content"
)

// plainTextBackend reads the text layer in content order, starting a new
// line whenever the baseline moves by more than tolerance.
type plainTextBackend struct {
	tolerance float64
}

func (plainTextBackend) Name() string        { return BackendPlainText }
func (plainTextBackend) Confidence() float64 { return 0.9 }

func (b plainTextBackend) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		for _, row := range contentRows(p.Content().Text, b.tolerance) {
			line := row.String()
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// contentRows splits glyphs into rows at baseline changes without
// reordering them.
func contentRows(texts []pdf.Text, tolerance float64) []glyphRow {
	var rows []glyphRow
	for _, t := range texts {
		n := len(rows)
		if n == 0 || abs(rows[n-1].y-t.Y) >= tolerance {
			rows = append(rows, glyphRow{y: t.Y})
			n++
		}
		rows[n-1].glyphs = append(rows[n-1].glyphs, t)
	}
	return rows
}

// layoutBackend shells out to poppler's pdftotext, which keeps column layout.
type layoutBackend struct {
	runner Runner
	bin    string
}

func (layoutBackend) Name() string        { return BackendLayout }
func (layoutBackend) Confidence() float64 { return 0.85 }

func (b layoutBackend) Extract(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := b.runner.Run(ctx, b.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// rowsBackend rebuilds lines from positioned glyphs, merging glyphs whose
// baselines are within tolerance. Useful when the text layer is out of order.
type rowsBackend struct {
	tolerance float64
}

func (rowsBackend) Name() string        { return BackendRows }
func (rowsBackend) Confidence() float64 { return 0.7 }

func (b rowsBackend) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, row := range groupRows(p.Content().Text, b.tolerance) {
			line := row.String()
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

type glyphRow struct {
	y      float64
	glyphs []pdf.Text
}

// groupRows buckets glyphs by baseline, top of page first, left to right.
func groupRows(texts []pdf.Text, tolerance float64) []glyphRow {
	var rows []glyphRow
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if abs(rows[i].y-t.Y) < tolerance {
				rows[i].glyphs = append(rows[i].glyphs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, glyphRow{y: t.Y, glyphs: []pdf.Text{t}})
		}
	}
	// PDF user space grows upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for i := range rows {
		g := rows[i].glyphs
		sort.SliceStable(g, func(a, b int) bool { return g[a].X < g[b].X })
	}
	return rows
}

func (r glyphRow) String() string {
	var b strings.Builder
	for i, t := range r.glyphs {
		if i > 0 {
			prev := r.glyphs[i-1]
			if t.S != " " && prev.S != " " && t.X-(prev.X+prev.W) > spaceGap(prev) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return strings.TrimSpace(b.String())
}

func spaceGap(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize * 0.2
	}
	return 1.0
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// contentStreamBackend scrapes string operands from raw page content streams.
// Last resort for documents whose fonts defeat the other readers.
type contentStreamBackend struct{}

func (contentStreamBackend) Name() string        { return BackendContentStream }
func (contentStreamBackend) Confidence() float64 { return 0.6 }

func (contentStreamBackend) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(textFromContentStream(data))
	}
	return sb.String(), nil
}

var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream keeps the operands of text-showing operators.
// Text objects (BT..ET) and line moves become line breaks.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
			continue
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			sb.WriteByte(' ')
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteRune(rune(c))
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(raw[i])
		default:
			// octal escape, up to three digits
			if raw[i] >= '0' && raw[i] <= '7' {
				v := 0
				j := 0
				for ; j < 3 && i+j < len(raw) && raw[i+j] >= '0' && raw[i+j] <= '7'; j++ {
					v = v*8 + int(raw[i+j]-'0')
				}
				i += j - 1
				sb.WriteRune(rune(v)) // PDFDocEncoding matches Latin-1 for accented letters
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
