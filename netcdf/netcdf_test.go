package netcdf

import (
	"math"
	"path/filepath"
	"testing"
)

func TestRecordBackfillAndOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fill.nc")

	b := NewBuilder()
	recordDim, err := b.AddDimension("record", 0)
	if err != nil {
		t.Fatalf("AddDimension(record): %v", err)
	}
	threeDim, err := b.AddDimension("three", 3)
	if err != nil {
		t.Fatalf("AddDimension(three): %v", err)
	}
	if _, err := b.AddVariable("values", Float, []int{recordDim, threeDim}, nil); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	w, err := b.Finalize(path)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	v, ok := w.Variable("values")
	if !ok {
		t.Fatalf("Variable(values) not found")
	}

	for i := 0; i < 3; i++ {
		if err := w.AddRecord(); err != nil {
			t.Fatalf("AddRecord %d: %v", i, err)
		}
	}
	if err := w.WriteFloat32(v, 1, []float32{1, 2, 3}); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if f.NRecords() != 3 {
		t.Fatalf("NRecords() = %d, want 3", f.NRecords())
	}

	rv, ok := f.Variable("values")
	if !ok {
		t.Fatalf("Variable(values) not found on reopen")
	}

	for _, step := range []int{0, 2} {
		got, err := f.ReadFloat32(rv, step)
		if err != nil {
			t.Fatalf("ReadFloat32(%d): %v", step, err)
		}
		for i, v := range got {
			if float64(v) != float64(FillFloat) {
				t.Errorf("step %d[%d] = %g, want fill value %g", step, i, v, FillFloat)
			}
		}
	}

	got, err := f.ReadFloat32(rv, 1)
	if err != nil {
		t.Fatalf("ReadFloat32(1): %v", err)
	}
	want := []float32{1, 2, 3}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("step 1[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestAttributeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.nc")

	b := NewBuilder()
	atomDim, err := b.AddDimension("atom", 2)
	if err != nil {
		t.Fatalf("AddDimension: %v", err)
	}
	b.AddAttribute(NewStringAttribute("Conventions", "AMBER"))
	if _, err := b.AddVariable("mass", Double, []int{atomDim},
		[]Attribute{NewStringAttribute("units", "amu")}); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}

	w, err := b.Finalize(path)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	v, _ := w.Variable("mass")
	if err := w.WriteFloat64(v, 0, []float64{12.011, 15.999}); err != nil {
		t.Fatalf("WriteFloat64: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	conv, ok := f.GlobalAttribute("Conventions")
	if !ok || conv.AsString() != "AMBER" {
		t.Errorf("Conventions = %q, %v, want AMBER", conv.AsString(), ok)
	}

	rv, ok := f.Variable("mass")
	if !ok {
		t.Fatalf("Variable(mass) not found")
	}
	units, ok := rv.Attribute("units")
	if !ok || units.AsString() != "amu" {
		t.Errorf("units attribute = %q, %v, want amu", units.AsString(), ok)
	}

	vals, err := f.ReadFloat64(rv, 0)
	if err != nil {
		t.Fatalf("ReadFloat64: %v", err)
	}
	if math.Abs(vals[0]-12.011) > 1e-9 || math.Abs(vals[1]-15.999) > 1e-9 {
		t.Errorf("mass = %v, want [12.011, 15.999]", vals)
	}
}
