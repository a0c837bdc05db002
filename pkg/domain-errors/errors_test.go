package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Run("direct domain error", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		if CodeOf(err) != CodeNotFound {
			t.Fatalf("expected %s, got %s", CodeNotFound, CodeOf(err))
		}
	})

	t.Run("wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("case 123: %w", New(CodeBadRequest, "bad"))
		if CodeOf(err) != CodeBadRequest {
			t.Fatalf("expected %s, got %s", CodeBadRequest, CodeOf(err))
		}
	})

	t.Run("unknown errors fail closed", func(t *testing.T) {
		if CodeOf(errors.New("boom")) != CodeInternal {
			t.Fatalf("expected unknown errors to map to %s", CodeInternal)
		}
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to save analysis result")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "failed to save analysis result: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
