package dcd

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/property"
	"github.com/chemfiles/go-chemfiles/topology"
)

func makeFrame(t *testing.T, title string, box cell.UnitCell, positions [][3]float64) *chemfiles.Frame {
	t.Helper()
	frame := chemfiles.NewFrame()
	frame.Cell = box
	frame.Properties.Set("title", property.NewString(title))
	for _, p := range positions {
		frame.AddAtom(topology.NewAtom("C"), cell.Vector3{p[0], p[1], p[2]}, nil)
	}
	return frame
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dcd")
	box, err := cell.FromLengthsAngles(10, 10, 10, 90, 90, 90)
	if err != nil {
		t.Fatalf("FromLengthsAngles: %v", err)
	}
	positions := [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}

	w, err := newWriter(path)
	if err != nil {
		t.Fatalf("newWriter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := w.Write(makeFrame(t, "test", box, positions)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := openReader(path)
	if err != nil {
		t.Fatalf("openReader: %v", err)
	}
	defer r.Close()

	n, err := r.NSteps()
	if err != nil {
		t.Fatalf("NSteps: %v", err)
	}
	if n != 2 {
		t.Fatalf("NSteps() = %d, want 2", n)
	}

	frame := chemfiles.NewFrame()
	if err := r.ReadStep(1, frame); err != nil {
		t.Fatalf("ReadStep(1): %v", err)
	}

	if frame.Size() != len(positions) {
		t.Fatalf("Size() = %d, want %d", frame.Size(), len(positions))
	}
	for i, want := range positions {
		got := frame.Positions[i]
		for k := 0; k < 3; k++ {
			if math.Abs(got[k]-want[k]) > 1e-4 {
				t.Errorf("atom %d coord %d: got %g, want %g", i, k, got[k], want[k])
			}
		}
	}

	a, b, c := frame.Cell.Lengths()
	if math.Abs(a-10) > 1e-3 || math.Abs(b-10) > 1e-3 || math.Abs(c-10) > 1e-3 {
		t.Errorf("cell lengths = (%g, %g, %g), want (10, 10, 10)", a, b, c)
	}
	alpha, beta, gamma := frame.Cell.Angles()
	if math.Abs(alpha-90) > 1e-2 || math.Abs(beta-90) > 1e-2 || math.Abs(gamma-90) > 1e-2 {
		t.Errorf("cell angles = (%g, %g, %g), want (90, 90, 90)", alpha, beta, gamma)
	}

	if title, ok := frame.Properties.GetAsString("title"); !ok || title != "test" {
		t.Errorf("title = %q, %v, want \"test\"", title, ok)
	}
}

func TestInfiniteCellRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "infinite.dcd")
	frame := makeFrame(t, "inf", cell.NewInfinite(), [][3]float64{{0, 0, 0}, {1, 1, 1}})

	w, err := newWriter(path)
	if err != nil {
		t.Fatalf("newWriter: %v", err)
	}
	if err := w.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := openReader(path)
	if err != nil {
		t.Fatalf("openReader: %v", err)
	}
	defer r.Close()

	out := chemfiles.NewFrame()
	if err := r.ReadStep(0, out); err != nil {
		t.Fatalf("ReadStep(0): %v", err)
	}
	if out.Cell.Shape() != cell.Infinite {
		t.Errorf("Cell.Shape() = %v, want Infinite", out.Cell.Shape())
	}
}

func TestSequentialReadAfterReadStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequential.dcd")
	box, _ := cell.FromLengthsAngles(20, 20, 20, 90, 90, 90)

	w, err := newWriter(path)
	if err != nil {
		t.Fatalf("newWriter: %v", err)
	}
	for i := 0; i < 3; i++ {
		x := float64(i)
		if err := w.Write(makeFrame(t, "seq", box, [][3]float64{{x, x, x}})); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := openReader(path)
	if err != nil {
		t.Fatalf("openReader: %v", err)
	}
	defer r.Close()

	frame := chemfiles.NewFrame()
	if err := r.ReadStep(0, frame); err != nil {
		t.Fatalf("ReadStep(0): %v", err)
	}
	if frame.Positions[0][0] != 0 {
		t.Fatalf("step 0 x = %g, want 0", frame.Positions[0][0])
	}

	if err := r.Read(frame); err != nil {
		t.Fatalf("Read (sequential after ReadStep): %v", err)
	}
	if frame.Positions[0][0] != 1 {
		t.Fatalf("sequential read after ReadStep(0) gave x = %g, want 1", frame.Positions[0][0])
	}
}
