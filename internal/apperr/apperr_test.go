package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"authorization", Authorization("no access"), KindAuthorization},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("duplicate"), KindConflict},
		{"internal", Internal("boom", errors.New("cause")), KindInternal},
		{"plain error", errors.New("plain"), KindUnknown},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("missing")), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelIs(t *testing.T) {
	err := NotFound("room %s not found", "r1")
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("did not expect errors.Is to match ErrConflict")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected errors.Is to match through wrapping")
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := Internal("failed to load room", cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if got := err.Error(); got != "failed to load room: db down" {
		t.Errorf("Error() = %q", got)
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(Validation("name required")); got != "name required" {
		t.Errorf("MessageOf() = %q", got)
	}
	if got := MessageOf(errors.New("raw sql error")); got != "internal error" {
		t.Errorf("MessageOf(plain) = %q, want generic message", got)
	}
}
