package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsType(t *testing.T) {
	cause := stderrors.New("boom")
	malformed := MalformedResponse("missing embedding", cause)
	wrapped := EmbeddingFailure("embedding request failed", malformed)

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct", malformed, ErrTypeMalformedResponse, true},
		{"outer of chain", wrapped, ErrTypeEmbeddingFailure, true},
		{"inner of chain", wrapped, ErrTypeMalformedResponse, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", wrapped), ErrTypeMalformedResponse, true},
		{"absent", wrapped, ErrTypeJobNotFound, false},
		{"plain error", cause, ErrTypeInternal, false},
		{"nil", nil, ErrTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.typ); got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainErrorMessage(t *testing.T) {
	err := EmbeddingFailure("max retries exceeded", stderrors.New("throttled"))
	if got, want := err.Error(), "EMBEDDING_FAILURE: max retries exceeded: throttled"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, err.Err) {
		t.Error("expected Unwrap to expose the cause")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("expected a captured stack")
	}
}
