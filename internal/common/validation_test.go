package common

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateUpload(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "nota.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		fileName string
		want     error
	}{
		{"ok", pdf, "nota.pdf", nil},
		{"upper case extension", pdf, "NOTA.PDF", nil},
		{"missing", filepath.Join(dir, "gone.pdf"), "gone.pdf", ErrNotFound},
		{"not a pdf", pdf, "nota.docx", ErrInvalidInput},
		{"empty name", pdf, " ", ErrInvalidInput},
		{"directory", dir, "dir.pdf", ErrInvalidInput},
		{"long name", pdf, strings.Repeat("a", MaxFileNameLen) + ".pdf", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := ValidateUpload(tt.path, tt.fileName)
			if tt.want == nil {
				if err != nil || size != 8 {
					t.Fatalf("size = %d err = %v", size, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	empty := ""
	v := NewValidator().
		Field("id", "nope", Required, UUID).
		Field("name", &empty, Required).
		Field("ok", uuid.NewString(), Required, UUID)

	if len(v.Errors()) != 2 {
		t.Fatalf("errors = %v", v.Errors())
	}
	err := v.Err("BAD_REQUEST")
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "id must be a valid UUID") {
		t.Fatalf("err = %v", err)
	}
	if NewValidator().Err("X") != nil {
		t.Fatal("valid input must not produce an error")
	}
}
