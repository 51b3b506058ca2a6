package netcdf_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/topology"

	_ "github.com/chemfiles/go-chemfiles/netcdf"
)

func TestAmberTrajectoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.nc")

	box, err := cell.FromLengthsAngles(20, 20, 20, 90, 90, 90)
	if err != nil {
		t.Fatalf("FromLengthsAngles: %v", err)
	}

	w, err := chemfiles.Open(path, chemfiles.ModeWrite, "Amber NetCDF")
	if err != nil {
		t.Fatalf("Open for write: %v", err)
	}
	for step := 0; step < 2; step++ {
		frame := chemfiles.NewFrame()
		frame.Cell = box
		offset := float64(step)
		frame.AddAtom(topology.NewAtom("H"), cell.Vector3{offset, 0, 0}, nil)
		frame.AddAtom(topology.NewAtom("O"), cell.Vector3{offset, 1, 0}, nil)
		if err := w.Write(frame); err != nil {
			t.Fatalf("Write step %d: %v", step, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	r, err := chemfiles.Open(path, chemfiles.ModeRead, "Amber NetCDF")
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer r.Close()

	if r.NSteps() != 2 {
		t.Fatalf("NSteps() = %d, want 2", r.NSteps())
	}

	frame := chemfiles.NewFrame()
	if err := r.ReadStep(1, frame); err != nil {
		t.Fatalf("ReadStep(1): %v", err)
	}
	if frame.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", frame.Size())
	}
	if math.Abs(frame.Positions[0][0]-1) > 1e-5 {
		t.Errorf("atom 0 x = %g, want 1", frame.Positions[0][0])
	}

	a, b, c := frame.Cell.Lengths()
	if math.Abs(a-20) > 1e-3 || math.Abs(b-20) > 1e-3 || math.Abs(c-20) > 1e-3 {
		t.Errorf("cell lengths = (%g, %g, %g), want (20, 20, 20)", a, b, c)
	}
}

func TestAmberTrajectoryInfiniteCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vacuum.nc")

	w, err := chemfiles.Open(path, chemfiles.ModeWrite, "Amber NetCDF")
	if err != nil {
		t.Fatalf("Open for write: %v", err)
	}
	frame := chemfiles.NewFrame()
	frame.AddAtom(topology.NewAtom("Ar"), cell.Vector3{0, 0, 0}, nil)
	if err := w.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	r, err := chemfiles.Open(path, chemfiles.ModeRead, "Amber NetCDF")
	if err != nil {
		t.Fatalf("Open for read: %v", err)
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

func TestGuessFormatAmberExtension(t *testing.T) {
	hint, err := chemfiles.GuessFormat("data.nc", chemfiles.ModeRead)
	if err != nil {
		t.Fatalf("GuessFormat: %v", err)
	}
	if hint != "Amber NetCDF" {
		t.Errorf("GuessFormat(data.nc) = %q, want \"Amber NetCDF\"", hint)
	}
}
