package chemfiles

import (
	"math"

	"github.com/pkg/errors"

	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/property"
	"github.com/chemfiles/go-chemfiles/topology"
)

// StepUnset is the sentinel Frame.Step value meaning "no step index
// recorded".
const StepUnset = math.MaxUint64

// Frame is the owning aggregate of one trajectory step: positions, optional
// velocities, a topology, a unit cell, a step index, and arbitrary
// properties.
type Frame struct {
	Step       uint64
	Cell       cell.UnitCell
	Topology   *topology.Topology
	Positions  []cell.Vector3
	Velocities []cell.Vector3 // nil when absent
	Properties *property.Map
}

// NewFrame returns an empty frame with an infinite cell and no atoms.
func NewFrame() *Frame {
	return &Frame{
		Step:       StepUnset,
		Cell:       cell.NewInfinite(),
		Topology:   topology.New(),
		Properties: property.NewMap(),
	}
}

// Size returns the number of atoms (== len(Positions) == Topology.Size()).
func (f *Frame) Size() int { return len(f.Positions) }

// HasVelocities reports whether this frame carries velocities.
func (f *Frame) HasVelocities() bool { return f.Velocities != nil }

// AddVelocities allocates a velocities slice sized to match Positions, if
// one is not already present.
func (f *Frame) AddVelocities() {
	if f.Velocities != nil {
		return
	}
	f.Velocities = make([]cell.Vector3, len(f.Positions))
}

// AddAtom appends one atom with its position (and, if this frame carries
// velocities, its velocity) to the frame.
func (f *Frame) AddAtom(atom topology.Atom, position cell.Vector3, velocity *cell.Vector3) {
	f.Topology.AddAtom(atom)
	f.Positions = append(f.Positions, position)
	if f.Velocities != nil {
		if velocity != nil {
			f.Velocities = append(f.Velocities, *velocity)
		} else {
			f.Velocities = append(f.Velocities, cell.Vector3{})
		}
	}
}

// Resize grows or shrinks Positions (and Velocities, if present) and the
// Topology to exactly n atoms, maintaining the invariant
// len(Positions) == Topology.Size().
func (f *Frame) Resize(n int) {
	if n < 0 {
		n = 0
	}

	if n <= len(f.Positions) {
		f.Positions = f.Positions[:n]
		if f.Velocities != nil {
			f.Velocities = f.Velocities[:n]
		}
	} else {
		for len(f.Positions) < n {
			f.Positions = append(f.Positions, cell.Vector3{})
		}
		if f.Velocities != nil {
			for len(f.Velocities) < n {
				f.Velocities = append(f.Velocities, cell.Vector3{})
			}
		}
	}
	f.Topology.Resize(n)
}

// checkInvariants verifies that positions, velocities, and the topology
// agree on atom count. Nothing in this package calls it.
func (f *Frame) checkInvariants() error {
	if len(f.Positions) != f.Topology.Size() {
		return errors.Errorf("frame: %d positions but %d topology atoms", len(f.Positions), f.Topology.Size())
	}
	if f.Velocities != nil && len(f.Velocities) != len(f.Positions) {
		return errors.Errorf("frame: %d velocities but %d positions", len(f.Velocities), len(f.Positions))
	}
	return nil
}
