// Package pdftest builds small single-page PDFs for tests that need a real
// text layer.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const (
	fontSize   = 10
	leading    = 14
	leftMargin = 40
	topLine    = 800
)

// Build returns a PDF with one text line per entry, top to bottom, set in
// Helvetica with WinAnsi encoding. Every line is its own text object.
func Build(lines ...string) ([]byte, error) {
	var content bytes.Buffer
	for i, line := range lines {
		enc, err := charmap.Windows1252.NewEncoder().String(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		fmt.Fprintf(&content, "BT\n/F1 %d Tf\n%d %d Td\n(%s) Tj\nET\n",
			fontSize, leftMargin, topLine-i*leading, escape(enc))
	}

	widths := make([]string, 0, 224)
	for c := 32; c <= 255; c++ {
		if c == ' ' {
			widths = append(widths, "278")
			continue
		}
		widths = append(widths, "556")
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 255 /Widths [" +
			strings.Join(widths, " ") + "] >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes(), nil
}

// Write builds the PDF into dir/name and returns its path.
func Write(tb testing.TB, dir, name string, lines ...string) string {
	tb.Helper()
	data, err := Build(lines...)
	if err != nil {
		tb.Fatalf("build %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
