package selection

import (
	"errors"
	"testing"

	"github.com/chemfiles/go-chemfiles"
)

func TestSelectEmptyQueryFails(t *testing.T) {
	frame := chemfiles.NewFrame()
	if _, err := Select(frame, ""); err == nil {
		t.Fatal("Select with an empty query should fail")
	}
}

func TestSelectUnimplementedWrapsSentinel(t *testing.T) {
	frame := chemfiles.NewFrame()
	_, err := Select(frame, "name O")
	if err == nil {
		t.Fatal("Select should fail until a query evaluator is wired in")
	}
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("error chain does not include ErrNotImplemented: %v", err)
	}
	if kind, ok := chemfiles.KindOf(err); !ok || kind != chemfiles.SelectionError {
		t.Errorf("KindOf(err) = %v, %v, want SelectionError, true", kind, ok)
	}
}
