package dcd

import (
	"math"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/fileio"
	"github.com/chemfiles/go-chemfiles/property"
	"github.com/chemfiles/go-chemfiles/topology"
)

// reader decodes a DCD trajectory opened for reading. Frame geometry after
// the first is stored with a fixed per-frame byte size, so ReadStep seeks
// directly rather than scanning; Read decodes at the current position.
type reader struct {
	bf          *fileio.BinaryFile
	markerWidth int

	header headerInfo
	title  string
	nAtoms int

	// fixedIndices lists the atom indices whose coordinates are only ever
	// written in the first frame when nFixedAtoms > 0; fixedX/Y/Z hold
	// those coordinates, captured once.
	fixedIndices  []int
	fixedX        []float32
	fixedY        []float32
	fixedZ        []float32
	hasFixedAtoms bool

	headerSize     int64 // bytes up to and including the title + atom-count record
	firstFrameSize int64
	frameSize      int64 // every frame after the first
	nSteps         uint64

	charmmStyleCell bool // charmm_version != 0; for versions 1-25 the angle slots may hold cosines
}

func openReader(path string) (chemfiles.Format, error) {
	endian, markerWidth, err := detectHeader(path)
	if err != nil {
		return nil, err
	}

	bf, err := fileio.OpenBinary(path, fileio.ModeRead, endian)
	if err != nil {
		return nil, err
	}

	h, err := readHeaderInfo(bf, markerWidth)
	if err != nil {
		bf.Close()
		return nil, err
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

	r := &reader{
		bf:              bf,
		markerWidth:     markerWidth,
		header:          h,
		title:           title,
		nAtoms:          nAtoms,
		charmmStyleCell: h.charmmVersion != 0,
	}

	if h.nFixedAtoms > 0 && h.nFixedAtoms < int32(nAtoms) {
		if err := r.readFixedIndices(); err != nil {
			bf.Close()
			return nil, err
		}
	}

	r.headerSize = int64(bf.Tell())
	r.computeFrameSizes()

	declared := int64(h.nFrames)
	available := int64(0)
	fileSize := int64(bf.FileSize())
	if r.firstFrameSize > 0 {
		rest := fileSize - r.headerSize - r.firstFrameSize
		available = 1
		if rest > 0 && r.frameSize > 0 {
			available += rest / r.frameSize
		}
	}
	if available != declared {
		warnFrameCountMismatch(declared, available)
	}
	r.nSteps = uint64(available)

	return r, nil
}

// readNAtomsRecord decodes the atom-count record that follows the title
// record in every DCD file.
func readNAtomsRecord(bf *fileio.BinaryFile, markerWidth int) (int, error) {
	if _, err := readMarker(bf, markerWidth); err != nil {
		return 0, err
	}
	n, err := bf.ReadI32()
	if err != nil {
		return 0, err
	}
	if _, err := readMarker(bf, markerWidth); err != nil {
		return 0, err
	}
	return int(n), nil
}

func warnFrameCountMismatch(declared, available int64) {
	chemfiles.Warnf("DCD header declares %d frames, but the file contains %d; using %d", declared, available, available)
}

// cellRecordSize returns the byte size of the optional unit-cell record: its
// payload (6 float64s either way: interleaved lengths/angles up to CHARMM 25,
// upper-triangular matrix entries for CHARMM>25) plus its marker overhead.
func (r *reader) cellRecordSize() int64 {
	if !r.header.hasUnitCell {
		return 0
	}
	return int64(r.markerWidth)*2 + 6*8
}

// coordinateRecordSize returns the byte size (with marker overhead) of one
// X, Y, or Z coordinate record holding n float32 values.
func (r *reader) coordinateRecordSize(n int) int64 {
	return int64(r.markerWidth)*2 + int64(n)*4
}

func (r *reader) computeFrameSizes() {
	nFirst := r.nAtoms
	nRest := r.nAtoms
	if r.hasFixedAtoms {
		nRest = r.nAtoms - len(r.fixedIndices)
	}

	cellSize := r.cellRecordSize()
	r.firstFrameSize = cellSize + 3*r.coordinateRecordSize(nFirst)
	r.frameSize = cellSize + 3*r.coordinateRecordSize(nRest)
}

// readFixedIndices reads the free-atom index list that follows the
// atom-count record whenever nFixedAtoms is set, and marks r.hasFixedAtoms.
func (r *reader) readFixedIndices() error {
	n, err := readMarker(r.bf, r.markerWidth)
	if err != nil {
		return err
	}
	count := int(n / 4)
	idx, err := r.bf.ReadI32Array(count)
	if err != nil {
		return err
	}
	if _, err := readMarker(r.bf, r.markerWidth); err != nil {
		return err
	}

	free := make(map[int]bool, count)
	for _, v := range idx {
		free[int(v)-1] = true
	}
	for i := 0; i < r.nAtoms; i++ {
		if !free[i] {
			r.fixedIndices = append(r.fixedIndices, i)
		}
	}
	r.hasFixedAtoms = true
	return nil
}

func (r *reader) NSteps() (uint64, error) { return r.nSteps, nil }

func (r *reader) Read(frame *chemfiles.Frame) error {
	return r.readAt(frame)
}

func (r *reader) ReadStep(step uint64, frame *chemfiles.Frame) error {
	if err := r.seekToStep(step); err != nil {
		return err
	}
	return r.readAt(frame)
}

func (r *reader) seekToStep(step uint64) error {
	if step >= r.nSteps {
		return chemfiles.NewOutOfBounds("DCD step %d is past the last step (%d)", step, r.nSteps)
	}
	offset := r.headerSize
	if step > 0 {
		offset += r.firstFrameSize + int64(step-1)*r.frameSize
	}
	r.bf.Seek(uint64(offset))
	return nil
}

func (r *reader) readAt(frame *chemfiles.Frame) error {
	frame.Topology = topology.New()
	for i := 0; i < r.nAtoms; i++ {
		frame.Topology.AddAtom(topology.NewAtom(""))
	}

	first := r.bf.Tell() == uint64(r.headerSize)

	if r.header.hasUnitCell {
		c, err := r.readCell()
		if err != nil {
			return chemfiles.WrapFormatError(err, "cannot read DCD unit cell")
		}
		frame.Cell = c
	} else {
		frame.Cell = cell.NewInfinite()
	}

	n := r.nAtoms
	if r.hasFixedAtoms && !first {
		n = r.nAtoms - len(r.fixedIndices)
	}

	x, err := r.readCoordRecord(n)
	if err != nil {
		return err
	}
	y, err := r.readCoordRecord(n)
	if err != nil {
		return err
	}
	z, err := r.readCoordRecord(n)
	if err != nil {
		return err
	}

	if r.hasFixedAtoms && first {
		r.fixedX = append([]float32(nil), x...)
		r.fixedY = append([]float32(nil), y...)
		r.fixedZ = append([]float32(nil), z...)
	}

	frame.Positions = make([]cell.Vector3, r.nAtoms)
	if r.hasFixedAtoms && !first {
		fixedSet := make(map[int]bool, len(r.fixedIndices))
		for _, idx := range r.fixedIndices {
			fixedSet[idx] = true
		}
		j := 0
		for i := 0; i < r.nAtoms; i++ {
			if fixedSet[i] {
				frame.Positions[i] = cell.Vector3{float64(r.fixedX[i]), float64(r.fixedY[i]), float64(r.fixedZ[i])}
				continue
			}
			frame.Positions[i] = cell.Vector3{float64(x[j]), float64(y[j]), float64(z[j])}
			j++
		}
	} else {
		for i := 0; i < r.nAtoms; i++ {
			frame.Positions[i] = cell.Vector3{float64(x[i]), float64(y[i]), float64(z[i])}
		}
	}

	if r.title != "" {
		frame.Properties.Set("title", property.NewString(r.title))
	}
	frame.Properties.Set("time", property.NewFloat64(r.header.dt*float64(r.header.startStep)))

	return nil
}

func (r *reader) readCoordRecord(n int) ([]float32, error) {
	if _, err := readMarker(r.bf, r.markerWidth); err != nil {
		return nil, err
	}
	vals, err := r.bf.ReadF32Array(n)
	if err != nil {
		return nil, err
	}
	if _, err := readMarker(r.bf, r.markerWidth); err != nil {
		return nil, err
	}
	return vals, nil
}

// readCell decodes the optional unit-cell record. CHARMM versions above 25
// store the cell as the six independent entries of the upper-triangular cell
// matrix; versions 1-25 store (a, gamma, b, beta, alpha, c), with the three
// angle slots holding cosines rather than degrees whenever all three are
// within [-1, 1].
func (r *reader) readCell() (cell.UnitCell, error) {
	if _, err := readMarker(r.bf, r.markerWidth); err != nil {
		return cell.UnitCell{}, err
	}
	vals, err := r.bf.ReadF64Array(6)
	if err != nil {
		return cell.UnitCell{}, err
	}
	if _, err := readMarker(r.bf, r.markerWidth); err != nil {
		return cell.UnitCell{}, err
	}

	if r.header.charmmVersion > 25 {
		m := cell.Matrix3{
			{vals[0], vals[1], vals[3]},
			{vals[1], vals[2], vals[4]},
			{vals[3], vals[4], vals[5]},
		}
		c, err := cell.FromMatrix(m)
		if err != nil {
			return cell.UnitCell{}, err
		}
		return c, nil
	}

	a, gammaOrB, b, betaOrA, alphaOrA2, c := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]

	if a == 0 && b == 0 && c == 0 {
		return cell.NewInfinite(), nil
	}

	if !r.charmmStyleCell {
		return cell.FromLengthsAngles(a, b, c, betaOrA, alphaOrA2, gammaOrB)
	}

	alpha, beta, gamma := alphaOrA2, betaOrA, gammaOrB
	if math.Abs(alpha) <= 1 && math.Abs(beta) <= 1 && math.Abs(gamma) <= 1 {
		alpha = cosineToDegrees(alpha)
		beta = cosineToDegrees(beta)
		gamma = cosineToDegrees(gamma)
	}
	return cell.FromLengthsAngles(a, b, c, alpha, beta, gamma)
}

// cosineToDegrees converts a cosine to the equivalent angle in degrees.
func cosineToDegrees(v float64) float64 {
	return 90 - math.Asin(v)*180/math.Pi
}

func (r *reader) Write(frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("DCD trajectory is open for reading")
}

func (r *reader) Close() error { return r.bf.Close() }
