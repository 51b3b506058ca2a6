package dcd

import (
	"math"
	"os"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/fileio"
)

// writer encodes a DCD trajectory opened for writing. It always emits
// CHARMM-style headers (charmm_version = 24, the value the original CHARMM
// program itself used) with no fixed atoms, and patches n_frames in the
// header record after every frame so the file is valid even if the process
// is interrupted mid-write.
type writer struct {
	bf          *fileio.BinaryFile
	markerWidth int

	nAtoms        int
	title         string
	headerWritten bool
	nFrames       int32

	nFramesMarkerOffset uint64 // byte offset of the n_frames field, for patch-back
}

const charmmVersion = 24

func newWriter(path string) (chemfiles.Format, error) {
	bf, err := fileio.OpenBinary(path, fileio.ModeWrite, fileio.LittleEndian)
	if err != nil {
		return nil, err
	}
	return &writer{bf: bf, markerWidth: recordMarkerWidth32}, nil
}

// newAppendWriter opens path for append. An absent or empty file is treated
// as a fresh trajectory; a non-empty file is parsed like a reader, checked
// against the restrictions this writer's layout requires (32-bit markers, no
// 4D data, no fixed atoms, a unit cell record in every frame), and positioned
// at its end so further Write calls extend it in place.
func newAppendWriter(path string) (chemfiles.Format, error) {
	info, statErr := os.Stat(path)
	if statErr != nil && !os.IsNotExist(statErr) {
		return nil, chemfiles.WrapFileError(statErr, "cannot stat %q", path)
	}
	if statErr != nil || info.Size() == 0 {
		return newWriter(path)
	}

	endian, markerWidth, err := detectHeader(path)
	if err != nil {
		return nil, err
	}
	if markerWidth != recordMarkerWidth32 {
		return nil, chemfiles.NewFormatError("cannot append to a DCD file with 64-bit record markers")
	}

	bf, err := fileio.OpenBinary(path, fileio.ModeAppend, endian)
	if err != nil {
		return nil, err
	}
	bf.Seek(0)

	h, err := readHeaderInfo(bf, markerWidth)
	if err != nil {
		bf.Close()
		return nil, err
	}
	if h.has4D {
		bf.Close()
		return nil, chemfiles.NewFormatError("cannot append to a DCD file with 4D data")
	}
	if h.nFixedAtoms > 0 {
		bf.Close()
		return nil, chemfiles.NewFormatError("cannot append to a DCD file with fixed atoms")
	}
	if !h.hasUnitCell {
		bf.Close()
		return nil, chemfiles.NewFormatError("cannot append to a DCD file without a unit cell record")
	}

	title, err := readTitle(bf, markerWidth)
	if err != nil {
		bf.Close()
		return nil, err
	}

	nAtoms, err := readNAtomsRecord(bf, markerWidth)
	if err != nil {
		bf.Close()
		return nil, err
	}

	w := &writer{
		bf:                  bf,
		markerWidth:         markerWidth,
		nAtoms:              nAtoms,
		title:               title,
		headerWritten:       true,
		nFrames:             h.nFrames,
		nFramesMarkerOffset: uint64(markerWidth) + 4, // record marker + "CORD" tag
	}
	bf.Seek(bf.FileSize())
	return w, nil
}

func (w *writer) NSteps() (uint64, error) { return uint64(w.nFrames), nil }

func (w *writer) Read(frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("DCD trajectory is open for writing")
}

func (w *writer) ReadStep(step uint64, frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("DCD trajectory is open for writing")
}

func (w *writer) Write(frame *chemfiles.Frame) error {
	if !w.headerWritten {
		if err := w.writeHeader(frame); err != nil {
			return err
		}
	} else {
		if frame.Size() != w.nAtoms {
			return chemfiles.NewFormatError("DCD: frame has %d atoms, trajectory was opened with %d", frame.Size(), w.nAtoms)
		}
		if title, ok := frame.Properties.GetAsString("title"); ok && title != w.title {
			chemfiles.Warnf("DCD: frame title %q does not match the trajectory's title %q, ignoring it", title, w.title)
		}
	}

	if err := w.writeCell(frame); err != nil {
		return err
	}
	if err := w.writeCoordinates(frame); err != nil {
		return err
	}

	w.nFrames++
	return w.patchNFrames()
}

func (w *writer) writeHeader(frame *chemfiles.Frame) error {
	w.nAtoms = frame.Size()
	if title, ok := frame.Properties.GetAsString("title"); ok {
		w.title = title
	}

	dt := 1.0
	if t, ok := frame.Properties.GetAsFloat64("time"); ok {
		dt = t
	}

	headerSize := int64(headerFixedSize + 4) // + dt (float32, CHARMM)
	if err := writeMarker(w.bf, w.markerWidth, headerSize); err != nil {
		return err
	}

	w.nFramesMarkerOffset = w.bf.Tell() + 4 // tag (4 bytes) precedes n_frames
	if err := w.bf.WriteChar([]byte("CORD")); err != nil {
		return err
	}
	if err := w.bf.WriteI32(0); err != nil { // n_frames, patched after each write
		return err
	}
	if err := w.bf.WriteI32(0); err != nil { // start_step
		return err
	}
	if err := w.bf.WriteI32(1); err != nil { // step_stride
		return err
	}
	if err := w.bf.WriteI32(0); err != nil { // n_steps, unused
		return err
	}
	if err := w.bf.WriteChar(make([]byte, 16)); err != nil {
		return err
	}
	if err := w.bf.WriteI32(0); err != nil { // n_fixed_atoms
		return err
	}
	if err := w.bf.WriteF32(float32(dt)); err != nil {
		return err
	}
	if err := w.bf.WriteI32(1); err != nil { // has_unit_cell
		return err
	}
	if err := w.bf.WriteI32(0); err != nil { // has_4d
		return err
	}
	if err := w.bf.WriteChar(make([]byte, 28)); err != nil {
		return err
	}
	if err := w.bf.WriteI32(charmmVersion); err != nil {
		return err
	}
	if err := writeMarker(w.bf, w.markerWidth, headerSize); err != nil {
		return err
	}

	if err := writeTitle(w.bf, w.markerWidth, w.title); err != nil {
		return err
	}

	if err := writeMarker(w.bf, w.markerWidth, 4); err != nil {
		return err
	}
	if err := w.bf.WriteI32(int32(w.nAtoms)); err != nil {
		return err
	}
	if err := writeMarker(w.bf, w.markerWidth, 4); err != nil {
		return err
	}

	w.headerWritten = true
	return nil
}

// writeCell encodes (a, gamma, b, beta, alpha, c) the way CHARMM versions up
// to 25 do, storing angles directly in degrees (the convention this writer always
// produces, so round-tripping through readCell's cosine-or-degrees guard is
// unambiguous).
func (w *writer) writeCell(frame *chemfiles.Frame) error {
	if !isUpperTriangular(frame.Cell.Matrix()) {
		chemfiles.Warnf("DCD: cell matrix is not upper-triangular, writing its lengths and angles instead")
	}

	a, b, c := frame.Cell.Lengths()
	alpha, beta, gamma := frame.Cell.Angles()

	if err := writeMarker(w.bf, w.markerWidth, 48); err != nil {
		return err
	}
	vals := []float64{a, gamma, b, beta, alpha, c}
	if err := w.bf.WriteF64Array(vals); err != nil {
		return err
	}
	return writeMarker(w.bf, w.markerWidth, 48)
}

const matrixZeroTolerance = 1e-5

// isUpperTriangular reports whether m follows the convention vector 0 lies
// along x and vector 1 lies in the xy plane.
func isUpperTriangular(m cell.Matrix3) bool {
	return math.Abs(m[0][1]) < matrixZeroTolerance &&
		math.Abs(m[0][2]) < matrixZeroTolerance &&
		math.Abs(m[1][2]) < matrixZeroTolerance
}

func (w *writer) writeCoordinates(frame *chemfiles.Frame) error {
	n := len(frame.Positions)
	x := make([]float32, n)
	y := make([]float32, n)
	z := make([]float32, n)
	for i, p := range frame.Positions {
		x[i], y[i], z[i] = float32(p[0]), float32(p[1]), float32(p[2])
	}
	for _, coords := range [][]float32{x, y, z} {
		size := int64(len(coords)) * 4
		if err := writeMarker(w.bf, w.markerWidth, size); err != nil {
			return err
		}
		if err := w.bf.WriteF32Array(coords); err != nil {
			return err
		}
		if err := writeMarker(w.bf, w.markerWidth, size); err != nil {
			return err
		}
	}
	return nil
}

// patchNFrames seeks back to the header's n_frames field and rewrites it, so
// the file stays valid after every frame rather than only at Close.
func (w *writer) patchNFrames() error {
	cursor := w.bf.Tell()
	w.bf.Seek(w.nFramesMarkerOffset)
	if err := w.bf.WriteI32(w.nFrames); err != nil {
		return err
	}
	w.bf.Seek(cursor)
	return nil
}

func (w *writer) Close() error { return w.bf.Close() }
