package fileio

import (
	"path/filepath"
	"testing"
)

func TestBinaryFileWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bin")

	w, err := OpenBinary(path, ModeWrite, LittleEndian)
	if err != nil {
		t.Fatalf("OpenBinary(write): %v", err)
	}
	if err := w.WriteI32(42); err != nil {
		t.Fatalf("WriteI32: %v", err)
	}
	if err := w.WriteF32(3.5); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}
	if err := w.WriteF64Array([]float64{1, 2, 3}); err != nil {
		t.Fatalf("WriteF64Array: %v", err)
	}
	if err := w.WriteChar([]byte("hi")); err != nil {
		t.Fatalf("WriteChar: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenBinary(path, ModeRead, LittleEndian)
	if err != nil {
		t.Fatalf("OpenBinary(read): %v", err)
	}
	defer r.Close()

	i, err := r.ReadI32()
	if err != nil || i != 42 {
		t.Errorf("ReadI32() = %d, %v, want 42, nil", i, err)
	}
	f, err := r.ReadF32()
	if err != nil || f != 3.5 {
		t.Errorf("ReadF32() = %g, %v, want 3.5, nil", f, err)
	}
	vals, err := r.ReadF64Array(3)
	if err != nil {
		t.Fatalf("ReadF64Array: %v", err)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("ReadF64Array()[%d] = %g, want %g", i, vals[i], want[i])
		}
	}
	b, err := r.ReadChar(2)
	if err != nil || string(b) != "hi" {
		t.Errorf("ReadChar(2) = %q, %v, want \"hi\", nil", b, err)
	}
}

func TestBinaryFileSeekAndPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.bin")

	w, err := OpenBinary(path, ModeWrite, BigEndian)
	if err != nil {
		t.Fatalf("OpenBinary(write): %v", err)
	}
	if err := w.WriteI32(0); err != nil {
		t.Fatalf("WriteI32: %v", err)
	}
	if err := w.WriteI32(99); err != nil {
		t.Fatalf("WriteI32: %v", err)
	}
	w.Seek(0)
	if err := w.WriteI32(7); err != nil {
		t.Fatalf("WriteI32 (patch): %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenBinary(path, ModeRead, BigEndian)
	if err != nil {
		t.Fatalf("OpenBinary(read): %v", err)
	}
	defer r.Close()

	first, err := r.ReadI32()
	if err != nil || first != 7 {
		t.Errorf("first i32 = %d, %v, want 7, nil", first, err)
	}
	second, err := r.ReadI32()
	if err != nil || second != 99 {
		t.Errorf("second i32 = %d, %v, want 99, nil", second, err)
	}
}

func TestEndianByteOrder(t *testing.T) {
	if LittleEndian.ByteOrder() == BigEndian.ByteOrder() {
		t.Error("LittleEndian and BigEndian must use different binary.ByteOrder values")
	}
}
