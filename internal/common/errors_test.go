package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{NewAppError("INVALID_UPLOAD", "x", ErrInvalidInput), codes.InvalidArgument},
		{NewAppError("BAD", "x", ErrValidation), codes.InvalidArgument},
		{fmt.Errorf("get: %w", NewAppError("NOT_FOUND", "x", ErrNotFound)), codes.NotFound},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		if got := status.Code(ToStatus(tt.err)); got != tt.want {
			t.Errorf("ToStatus(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if ToStatus(nil) != nil {
		t.Error("nil must stay nil")
	}
}
