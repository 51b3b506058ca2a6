package topology

import (
	"github.com/chemfiles/go-chemfiles/elements"
	"github.com/chemfiles/go-chemfiles/property"
)

// BondOrder classifies the multiplicity/character of a bond.
type BondOrder int

const (
	BondOrderUnknown BondOrder = iota
	BondOrderSingle
	BondOrderDouble
	BondOrderTriple
	BondOrderQuadruple
	BondOrderAromatic
	BondOrderAmide
)

// Atom holds per-atom elemental metadata. The zero value is a usable atom
// named "" with zero mass and charge; use NewAtom to get element-aware
// defaults.
type Atom struct {
	Name       string
	Type       string
	Mass       float64
	Charge     float64
	Properties *property.Map
}

// NewAtom builds an Atom named name, with Type defaulting to name and Mass
// defaulted from the periodic table if name matches a known element symbol.
func NewAtom(name string) Atom {
	a := Atom{
		Name:       name,
		Type:       name,
		Properties: property.NewMap(),
	}
	if d, ok := elements.Lookup(name); ok {
		a.Mass = d.Mass
	}
	return a
}
