package topology

import (
	"sort"

	"github.com/chemfiles/go-chemfiles/property"
)

// noID mirrors the "unset" convention used for Residue.ID: zero-value
// residues created via NewResidue have no ID until SetID is called.
const noID = -1

// Residue names a subset of a Frame's atoms treated as a chemical unit.
type Residue struct {
	Name       string
	id         int
	hasID      bool
	atoms      []int // sorted, unique, ascending
	Properties *property.Map
}

// NewResidue builds an empty, unnumbered residue named name.
func NewResidue(name string) *Residue {
	return &Residue{
		Name:       name,
		id:         noID,
		Properties: property.NewMap(),
	}
}

// ID returns the residue's id and whether one has been set.
func (r *Residue) ID() (int64, bool) {
	if !r.hasID {
		return 0, false
	}
	return int64(r.id), true
}

// SetID assigns a residue id.
func (r *Residue) SetID(id int64) {
	r.id = int(id)
	r.hasID = true
}

// Atoms returns the residue's atom indices in ascending order. The returned
// slice must not be mutated by the caller.
func (r *Residue) Atoms() []int {
	return r.atoms
}

// Contains reports whether atom index i belongs to this residue.
func (r *Residue) Contains(i int) bool {
	idx := sort.SearchInts(r.atoms, i)
	return idx < len(r.atoms) && r.atoms[idx] == i
}

// AddAtom inserts atom index i into the residue, keeping atoms sorted and
// unique.
func (r *Residue) AddAtom(i int) {
	idx := sort.SearchInts(r.atoms, i)
	if idx < len(r.atoms) && r.atoms[idx] == i {
		return
	}
	r.atoms = append(r.atoms, 0)
	copy(r.atoms[idx+1:], r.atoms[idx:])
	r.atoms[idx] = i
}

// Size returns the number of atoms in the residue.
func (r *Residue) Size() int { return len(r.atoms) }
