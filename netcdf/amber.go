package netcdf

import (
	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/topology"
)

func init() {
	chemfiles.RegisterFormat(
		chemfiles.FormatMetadata{
			Name:      "Amber NetCDF",
			Extension: ".nc",
			Capabilities: chemfiles.Capabilities{
				Read:      true,
				Write:     true,
				Positions: true,
				UnitCell:  true,
				Atoms:     true,
			},
		},
		create,
		nil, // no memory I/O: the variable offset table needs a real, seekable file
	)
}

func create(path string, mode chemfiles.OpenMode, compression chemfiles.Compression) (chemfiles.Format, error) {
	if compression != chemfiles.CompressionNone {
		return nil, chemfiles.NewFormatError("Amber NetCDF does not support compression")
	}

	switch mode {
	case chemfiles.ModeRead:
		return openAmberReader(path)
	case chemfiles.ModeWrite:
		return &amberWriter{path: path}, nil
	case chemfiles.ModeAppend:
		return openAmberAppendWriter(path)
	default:
		return nil, chemfiles.NewFormatError("unknown open mode")
	}
}

// openAmberAppendWriter resumes writing an existing Amber NetCDF trajectory,
// or behaves like a fresh create if the file is absent or empty.
func openAmberAppendWriter(path string) (chemfiles.Format, error) {
	w, isNew, err := OpenAppend(path)
	if err != nil {
		return nil, err
	}
	if isNew {
		return &amberWriter{path: path}, nil
	}

	coords, ok := w.Variable("coordinates")
	if !ok {
		w.Close()
		return nil, chemfiles.NewFormatError("Amber NetCDF: missing required \"coordinates\" variable")
	}
	if len(coords.DimIDs) != 3 {
		w.Close()
		return nil, chemfiles.NewFormatError("Amber NetCDF: \"coordinates\" must have 3 dimensions (frame, atom, spatial)")
	}

	lengths, _ := w.Variable("cell_lengths")
	angles, _ := w.Variable("cell_angles")

	return &amberWriter{
		path:        path,
		w:           w,
		coordinates: coords,
		cellLengths: lengths,
		cellAngles:  angles,
		nAtoms:      coords.ElementCount() / 3,
	}, nil
}

// amberReader adapts a parsed File to chemfiles.Format using the Amber
// trajectory convention: a "coordinates" variable shaped (frame, atom,
// spatial), and optional "cell_lengths"/"cell_angles" variables shaped
// (frame, spatial=3).
type amberReader struct {
	f           *File
	nAtoms      int
	coordinates *Variable
	cellLengths *Variable
	cellAngles  *Variable
	cur         uint64 // next step Read() will decode
}

func openAmberReader(path string) (chemfiles.Format, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}

	coords, ok := f.Variable("coordinates")
	if !ok {
		f.Close()
		return nil, chemfiles.NewFormatError("Amber NetCDF: missing required \"coordinates\" variable")
	}
	if len(coords.DimIDs) != 3 {
		f.Close()
		return nil, chemfiles.NewFormatError("Amber NetCDF: \"coordinates\" must have 3 dimensions (frame, atom, spatial)")
	}
	atomDim := f.Dimensions()[coords.DimIDs[1]]

	r := &amberReader{f: f, nAtoms: atomDim.Size, coordinates: coords}
	if v, ok := f.Variable("cell_lengths"); ok {
		r.cellLengths = v
	}
	if v, ok := f.Variable("cell_angles"); ok {
		r.cellAngles = v
	}
	return r, nil
}

func (r *amberReader) NSteps() (uint64, error) { return uint64(r.f.NRecords()), nil }

func (r *amberReader) Read(frame *chemfiles.Frame) error {
	if err := r.ReadStep(r.cur, frame); err != nil {
		return err
	}
	r.cur++
	return nil
}

func (r *amberReader) ReadStep(step uint64, frame *chemfiles.Frame) error {
	r.cur = step + 1
	flat, err := r.f.ReadFloat32(r.coordinates, int(step))
	if err != nil {
		return chemfiles.WrapFormatError(err, "cannot read Amber NetCDF coordinates at step %d", step)
	}
	if len(flat) != r.nAtoms*3 {
		return chemfiles.NewFormatError("Amber NetCDF: coordinates entry has %d values, expected %d", len(flat), r.nAtoms*3)
	}

	frame.Topology = topology.New()
	frame.Positions = make([]cell.Vector3, r.nAtoms)
	for i := 0; i < r.nAtoms; i++ {
		frame.Topology.AddAtom(topology.NewAtom(""))
		frame.Positions[i] = cell.Vector3{
			float64(flat[3*i]),
			float64(flat[3*i+1]),
			float64(flat[3*i+2]),
		}
	}

	frame.Cell = cell.NewInfinite()
	if r.cellLengths != nil && r.cellAngles != nil {
		lengths, err := r.f.ReadFloat64(r.cellLengths, int(step))
		if err != nil {
			return chemfiles.WrapFormatError(err, "cannot read Amber NetCDF cell_lengths at step %d", step)
		}
		angles, err := r.f.ReadFloat64(r.cellAngles, int(step))
		if err != nil {
			return chemfiles.WrapFormatError(err, "cannot read Amber NetCDF cell_angles at step %d", step)
		}
		if lengths[0] == 0 && lengths[1] == 0 && lengths[2] == 0 {
			frame.Cell = cell.NewInfinite()
		} else {
			c, err := cell.FromLengthsAngles(lengths[0], lengths[1], lengths[2], angles[0], angles[1], angles[2])
			if err != nil {
				return chemfiles.WrapFormatError(err, "invalid Amber NetCDF unit cell at step %d", step)
			}
			frame.Cell = c
		}
	}

	return nil
}

func (r *amberReader) Write(frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("Amber NetCDF trajectory is open for reading")
}

func (r *amberReader) Close() error { return r.f.Close() }

// amberWriter adapts a Builder/Writer pair to chemfiles.Format. Its
// dimension/variable layout is only known once the first frame arrives, so
// Finalize is deferred to the first Write call.
type amberWriter struct {
	path string

	w           *Writer
	coordinates *Variable
	cellLengths *Variable
	cellAngles  *Variable
	nAtoms      int
}

func (w *amberWriter) NSteps() (uint64, error) {
	if w.w == nil {
		return 0, nil
	}
	return uint64(w.w.NRecords()), nil
}

func (w *amberWriter) Read(frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("Amber NetCDF trajectory is open for writing")
}

func (w *amberWriter) ReadStep(step uint64, frame *chemfiles.Frame) error {
	return chemfiles.NewFileError("Amber NetCDF trajectory is open for writing")
}

func (w *amberWriter) Write(frame *chemfiles.Frame) error {
	if w.w == nil {
		if err := w.initialize(frame); err != nil {
			return err
		}
	} else if frame.Size() != w.nAtoms {
		return chemfiles.NewFormatError("Amber NetCDF: frame has %d atoms, trajectory was opened with %d", frame.Size(), w.nAtoms)
	}

	step := int(w.w.NRecords())

	flat := make([]float32, 3*frame.Size())
	for i, p := range frame.Positions {
		flat[3*i], flat[3*i+1], flat[3*i+2] = float32(p[0]), float32(p[1]), float32(p[2])
	}
	if err := w.w.WriteFloat32(w.coordinates, step, flat); err != nil {
		return err
	}

	if w.cellLengths != nil && w.cellAngles != nil {
		a, b, c := frame.Cell.Lengths()
		alpha, beta, gamma := frame.Cell.Angles()
		if err := w.w.WriteFloat64(w.cellLengths, step, []float64{a, b, c}); err != nil {
			return err
		}
		if err := w.w.WriteFloat64(w.cellAngles, step, []float64{alpha, beta, gamma}); err != nil {
			return err
		}
	}

	return w.w.AddRecord()
}

func (w *amberWriter) initialize(frame *chemfiles.Frame) error {
	w.nAtoms = frame.Size()

	b := NewBuilder()
	frameDim, err := b.AddDimension("frame", 0)
	if err != nil {
		return err
	}
	spatialDim, err := b.AddDimension("spatial", 3)
	if err != nil {
		return err
	}
	atomDim, err := b.AddDimension("atom", w.nAtoms)
	if err != nil {
		return err
	}

	b.AddAttribute(NewStringAttribute("Conventions", "AMBER"))
	b.AddAttribute(NewStringAttribute("ConventionVersion", "1.0"))
	b.AddAttribute(NewStringAttribute("program", "go-chemfiles"))

	if _, err := b.AddVariable("coordinates", Float, []int{frameDim, atomDim, spatialDim},
		[]Attribute{NewStringAttribute("units", "angstrom")}); err != nil {
		return err
	}
	if _, err := b.AddVariable("cell_lengths", Double, []int{frameDim, spatialDim},
		[]Attribute{NewStringAttribute("units", "angstrom")}); err != nil {
		return err
	}
	if _, err := b.AddVariable("cell_angles", Double, []int{frameDim, spatialDim},
		[]Attribute{NewStringAttribute("units", "degree")}); err != nil {
		return err
	}

	writer, err := b.Finalize(w.path)
	if err != nil {
		return err
	}

	coords, _ := writer.Variable("coordinates")
	lengths, _ := writer.Variable("cell_lengths")
	angles, _ := writer.Variable("cell_angles")

	w.w = writer
	w.coordinates = coords
	w.cellLengths = lengths
	w.cellAngles = angles
	return nil
}

func (w *amberWriter) Close() error {
	if w.w == nil {
		return nil
	}
	return w.w.Close()
}
