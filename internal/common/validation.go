package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// MaxFileNameLen bounds the submitted name of a document.
const MaxFileNameLen = 255

// ValidationError is one failed rule on one field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, fmt.Sprint(e.Value))
}

// Validator collects rule failures across fields.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field applies rules to value in order and keeps every failure.
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage joins every failure; empty when the input was valid.
func (v *Validator) ErrorMessage() string {
	messages := make([]string, len(v.errors))
	for i, err := range v.errors {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Err wraps the collected failures as ErrValidation under code, or returns nil.
func (v *Validator) Err(code string) error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(code, v.ErrorMessage(), ErrValidation)
}

// ValidationRule checks a single field value.
type ValidationRule func(fieldName string, value interface{}) *ValidationError

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v != nil {
			return *v, true
		}
	}
	return "", false
}

func Required(fieldName string, value interface{}) *ValidationError {
	missing := value == nil
	switch v := value.(type) {
	case string:
		missing = strings.TrimSpace(v) == ""
	case *string:
		missing = v == nil || strings.TrimSpace(*v) == ""
	}
	if missing {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// MaxLength limits a string field to max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		s, ok := stringValue(value)
		if !ok || utf8.RuneCountInString(s) <= max {
			return nil
		}
		return &ValidationError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
}

func UUID(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if _, err := uuid.Parse(s); err != nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a valid UUID"}
	}
	return nil
}

// PDFFileName accepts names ending in an allowed extension.
func PDFFileName(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !constants.IsAllowedExt(filepath.Ext(s)) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a .pdf file"}
	}
	return nil
}

// ValidateUpload checks a document before analysis and returns its size.
// Failures wrap ErrNotFound for a missing file and ErrInvalidInput otherwise.
func ValidateUpload(path, fileName string) (int64, error) {
	v := NewValidator().
		Field("file_name", fileName, Required, PDFFileName, MaxLength(MaxFileNameLen)).
		Field("path", path, Required)
	if v.HasErrors() {
		return 0, NewAppError("INVALID_UPLOAD", v.ErrorMessage(), ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, NewAppError("NOT_FOUND", "file "+path, ErrNotFound)
		}
		return 0, NewAppError("INVALID_UPLOAD", "stat "+path, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	if info.IsDir() {
		return 0, NewAppError("INVALID_UPLOAD", path+" is a directory", ErrInvalidInput)
	}
	if info.Size() > constants.MaxUploadBytes {
		return 0, NewAppError("INVALID_UPLOAD",
			fmt.Sprintf("%s is %d bytes, limit is %d", fileName, info.Size(), constants.MaxUploadBytes), ErrInvalidInput)
	}
	return info.Size(), nil
}
