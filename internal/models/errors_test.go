package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is(t *testing.T) {
	err := NotFoundf("compare", "document %d", 7)
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFound error should match ErrNotFound")
	}
	if errors.Is(err, ErrInvalidArgument) {
		t.Error("NotFound error should not match ErrInvalidArgument")
	}
	wrapped := fmt.Errorf("engine: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should still match ErrNotFound")
	}
	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf = %q", KindOf(wrapped))
	}
}

func TestError_Message(t *testing.T) {
	err := InvalidArgumentf("graph", "threshold %.2f outside [0,1]", 1.5)
	want := "graph: invalid_argument: threshold 1.50 outside [0,1]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain error has no kind")
	}
}
