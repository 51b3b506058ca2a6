package chemfiles_test

import (
	"testing"

	"github.com/chemfiles/go-chemfiles"
)

func TestWarningCallbackReceivesFormattedMessage(t *testing.T) {
	var got string
	chemfiles.SetWarningCallback(func(msg string) { got = msg })
	defer chemfiles.SetWarningCallback(func(string) {})

	chemfiles.Warnf("mismatch: wanted %d, got %d", 3, 5)

	if got != "mismatch: wanted 3, got 5" {
		t.Errorf("warning callback received %q, want \"mismatch: wanted 3, got 5\"", got)
	}
}
