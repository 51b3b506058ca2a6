package topology

import (
	"testing"

	"github.com/chemfiles/go-chemfiles/cell"
)

func TestGuessBondsWater(t *testing.T) {
	top := New()
	top.AddAtom(NewAtom("O"))
	top.AddAtom(NewAtom("H"))
	top.AddAtom(NewAtom("H"))

	positions := []cell.Vector3{
		{0, 0, 0},
		{0.96, 0, 0},
		{-0.24, 0.93, 0},
	}
	box := cell.NewInfinite()

	if err := GuessBonds(top, positions, box); err != nil {
		t.Fatalf("GuessBonds: %v", err)
	}

	bonds := top.Bonds()
	if len(bonds) != 2 {
		t.Fatalf("Bonds() = %v, want 2 O-H bonds", bonds)
	}
	for _, b := range bonds {
		if b.I != 0 && b.J != 0 {
			t.Errorf("bond %v does not touch the oxygen atom", b)
		}
	}

	// The two hydrogens are far enough apart, and neither is the oxygen, so
	// no H-H bond should be guessed.
	for _, b := range bonds {
		if b.I == 1 && b.J == 2 {
			t.Error("spurious H-H bond guessed")
		}
	}
}

func TestGuessBondsRespectsMinimumDistance(t *testing.T) {
	top := New()
	top.AddAtom(NewAtom("C"))
	top.AddAtom(NewAtom("C"))

	// Two atoms stacked on top of each other: below bondGuessMinDist, so no
	// bond should be guessed even though covalent radii would otherwise
	// overlap generously.
	positions := []cell.Vector3{{0, 0, 0}, {0.01, 0, 0}}
	if err := GuessBonds(top, positions, cell.NewInfinite()); err != nil {
		t.Fatalf("GuessBonds: %v", err)
	}
	if len(top.Bonds()) != 0 {
		t.Errorf("Bonds() = %v, want none (atoms closer than the minimum distance)", top.Bonds())
	}
}

func TestDerivedAnglesFromBonds(t *testing.T) {
	top := New()
	for i := 0; i < 3; i++ {
		top.AddAtom(NewAtom("C"))
	}
	if err := top.AddBond(0, 1, BondOrderSingle, ""); err != nil {
		t.Fatalf("AddBond: %v", err)
	}
	if err := top.AddBond(1, 2, BondOrderSingle, ""); err != nil {
		t.Fatalf("AddBond: %v", err)
	}

	angles := top.Angles()
	if len(angles) != 1 {
		t.Fatalf("Angles() = %v, want exactly one angle", angles)
	}
	if angles[0] != (Angle{0, 1, 2}) {
		t.Errorf("Angles()[0] = %v, want {0, 1, 2}", angles[0])
	}
}

func TestResizeTruncationDropsBonds(t *testing.T) {
	top := New()
	for i := 0; i < 4; i++ {
		top.AddAtom(NewAtom("C"))
	}
	if err := top.AddBond(0, 1, BondOrderSingle, ""); err != nil {
		t.Fatalf("AddBond: %v", err)
	}
	if err := top.AddBond(2, 3, BondOrderSingle, ""); err != nil {
		t.Fatalf("AddBond: %v", err)
	}

	top.Resize(2)
	if top.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", top.Size())
	}
	bonds := top.Bonds()
	if len(bonds) != 1 || bonds[0] != (Bond{0, 1}) {
		t.Errorf("Bonds() after Resize(2) = %v, want [{0 1}]", bonds)
	}
}
