package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("commit: %w", ErrConflict), "conflict"},
		{ErrPermission, "permission"},
		{fmt.Errorf("organizer: %w", ErrNotFound), "not_found"},
		{ErrAlreadyExists, "already_exists"},
		{context.Canceled, "canceled"},
		{&ValidationError{FieldErrors: map[string]string{"title": "required"}}, "validation"},
		{fmt.Errorf("boom"), "unexpected"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
