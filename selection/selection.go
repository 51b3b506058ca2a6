// Package selection is the entry point for the textual atom-selection
// language: parsing a query string into an AST and evaluating it against a
// Frame to produce index matches. The language itself is an external
// collaborator; this package only defines the boundary chemfiles calls
// across.
package selection

import (
	"errors"

	"github.com/chemfiles/go-chemfiles"
)

// ErrNotImplemented is returned by Select until a query evaluator is wired
// in. It is distinct from a parse error: a caller can distinguish "no
// selection language available" from "bad query syntax".
var ErrNotImplemented = errors.New("selection: query evaluation is not implemented")

// Matches is one Select result: atom indices for an atomic selection, or
// tuples of indices for a multiple selection ("pairs:", "angles:", ...).
type Matches [][]int

// Select parses query and evaluates it against frame, returning the
// matching atom index (tuples).
func Select(frame *chemfiles.Frame, query string) (Matches, error) {
	if query == "" {
		return nil, chemfiles.NewSelectionError("empty selection query")
	}
	return nil, chemfiles.WrapSelectionError(ErrNotImplemented, "cannot evaluate query %q", query)
}
