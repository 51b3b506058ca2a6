package cell

import (
	"fmt"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestFromLengthsAnglesOrthorhombic(t *testing.T) {
	c, err := FromLengthsAngles(10, 20, 30, 90, 90, 90)
	if err != nil {
		t.Fatalf("FromLengthsAngles: %v", err)
	}
	if c.Shape() != Orthorhombic {
		t.Errorf("Shape() = %v, want Orthorhombic", c.Shape())
	}
	a, b, cc := c.Lengths()
	if !almostEqual(a, 10, 1e-9) || !almostEqual(b, 20, 1e-9) || !almostEqual(cc, 30, 1e-9) {
		t.Errorf("Lengths() = (%g, %g, %g), want (10, 20, 30)", a, b, cc)
	}
}

func TestFromLengthsAnglesZeroIsInfinite(t *testing.T) {
	c, err := FromLengthsAngles(0, 0, 0, 0, 0, 0)
	if err != nil {
		t.Fatalf("FromLengthsAngles(all zero): %v", err)
	}
	if c.Shape() != Infinite {
		t.Errorf("Shape() = %v, want Infinite", c.Shape())
	}
}

func TestFromLengthsAnglesRejectsBadAngle(t *testing.T) {
	if _, err := FromLengthsAngles(10, 10, 10, 0, 90, 90); err == nil {
		t.Fatal("FromLengthsAngles with alpha=0 and nonzero lengths should fail")
	}
}

func TestTriclinicWrap(t *testing.T) {
	c, err := FromLengthsAngles(10, 10, 10, 80, 90, 100)
	if err != nil {
		t.Fatalf("FromLengthsAngles: %v", err)
	}
	if c.Shape() != Triclinic {
		t.Fatalf("Shape() = %v, want Triclinic", c.Shape())
	}

	wrapped := c.Wrap(Vector3{12, 3, 3})
	for i := 0; i < 3; i++ {
		if math.Abs(wrapped[i]) > 15 {
			t.Errorf("wrapped[%d] = %g, looks unwrapped", i, wrapped[i])
		}
	}

	// A point already inside the central image is left close to unchanged.
	inside := Vector3{1, 1, 1}
	got := c.Wrap(inside)
	if !almostEqual(got[0], inside[0], 1e-6) || !almostEqual(got[1], inside[1], 1e-6) || !almostEqual(got[2], inside[2], 1e-6) {
		t.Errorf("Wrap(inside) = %v, want approximately unchanged %v", got, inside)
	}
}

func TestOrthorhombicWrap(t *testing.T) {
	c, err := FromLengths(10, 10, 10)
	if err != nil {
		t.Fatalf("FromLengths: %v", err)
	}
	got := c.Wrap(Vector3{12, -6, 5})
	want := Vector3{2, 4, 5}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-9) {
			t.Errorf("Wrap()[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestInfiniteWrapIsNoOp(t *testing.T) {
	c := NewInfinite()
	v := Vector3{123, -45, 6}
	got := c.Wrap(v)
	if got != v {
		t.Errorf("Wrap() on infinite cell = %v, want unchanged %v", got, v)
	}
}

func TestFromLengthsWarnsOnPartialZero(t *testing.T) {
	var got string
	SetWarnFunc(func(format string, args ...interface{}) {
		got = fmt.Sprintf(format, args...)
	})
	defer SetWarnFunc(func(string, ...interface{}) {})

	if _, err := FromLengths(5, 0, 5); err != nil {
		t.Fatalf("FromLengths: %v", err)
	}
	if got == "" {
		t.Fatal("FromLengths(5, 0, 5) should have warned about the zero length")
	}
}

func TestFromLengthsNoWarnOnAllNonzeroOrAllZero(t *testing.T) {
	calls := 0
	SetWarnFunc(func(string, ...interface{}) { calls++ })
	defer SetWarnFunc(func(string, ...interface{}) {})

	if _, err := FromLengths(5, 5, 5); err != nil {
		t.Fatalf("FromLengths: %v", err)
	}
	if _, err := FromLengths(0, 0, 0); err != nil {
		t.Fatalf("FromLengths: %v", err)
	}
	if calls != 0 {
		t.Errorf("FromLengths should not warn when zero or three lengths are zero, got %d warnings", calls)
	}
}

func TestFromMatrixRejectsNegativeDeterminant(t *testing.T) {
	m := Matrix3{
		{-1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	if _, err := FromMatrix(m); err == nil {
		t.Fatal("FromMatrix should reject a left-handed (negative-determinant) matrix")
	}
}

func TestFromMatrixAcceptsArbitraryOrientation(t *testing.T) {
	// A triclinic matrix whose vectors are not in canonical upper-triangular
	// orientation (vector 0 has a nonzero y component), as produced by a
	// CHARMM>25 DCD cell record reconstructed from its packed upper-triangular
	// values.
	m := Matrix3{
		{10, 1, 0},
		{1, 10, 1},
		{0, 1, 10},
	}
	c, err := FromMatrix(m)
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}
	if c.Shape() != Triclinic {
		t.Errorf("Shape() = %v, want Triclinic", c.Shape())
	}
	a, b, cc := c.Lengths()
	wantA := math.Sqrt(10*10 + 1*1)
	wantB := math.Sqrt(1*1 + 10*10 + 1*1)
	if !almostEqual(a, wantA, 1e-9) || !almostEqual(b, wantB, 1e-9) || !almostEqual(cc, wantA, 1e-9) {
		t.Errorf("Lengths() = (%g, %g, %g), want (%g, %g, %g)", a, b, cc, wantA, wantB, wantA)
	}
}

func TestSetLengthsWarnsOnNonCanonicalOrientation(t *testing.T) {
	m := Matrix3{
		{10, 1, 0},
		{1, 10, 1},
		{0, 1, 10},
	}
	c, err := FromMatrix(m)
	if err != nil {
		t.Fatalf("FromMatrix: %v", err)
	}

	calls := 0
	SetWarnFunc(func(string, ...interface{}) { calls++ })
	defer SetWarnFunc(func(string, ...interface{}) {})

	if _, err := c.SetLengths(5, 5, 5); err != nil {
		t.Fatalf("SetLengths: %v", err)
	}
	if calls == 0 {
		t.Error("SetLengths on a non-canonically-oriented cell should warn about losing orientation")
	}
}
