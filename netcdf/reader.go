package netcdf

import (
	"os"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/fileio"
)

// File is an open, header-parsed NetCDF-3 64-bit-offset file.
type File struct {
	bf   *fileio.BinaryFile
	mode fileio.OpenMode

	dims         []Dimension
	recordDimIdx int // -1 if there is no record dimension
	globalAttrs  []Attribute
	vars         []Variable

	recordStride int64 // sum of every record variable's paddedSize
	nRecords     int64
}

// Open parses the NetCDF-3 header at path in ModeRead.
func Open(path string) (*File, error) {
	bf, err := fileio.OpenBinary(path, fileio.ModeRead, fileio.BigEndian)
	if err != nil {
		return nil, err
	}

	f := &File{bf: bf, mode: fileio.ModeRead, recordDimIdx: -1}
	if err := f.readHeader(); err != nil {
		bf.Close()
		return nil, err
	}
	return f, nil
}

// OpenAppend opens path for appending new records to an existing NetCDF-3
// file. An absent or zero-byte file reports isNew=true: the caller should
// build the file from scratch with a Builder, exactly as for a fresh write.
// A non-empty file missing the "CDF" magic fails with a FormatError.
func OpenAppend(path string) (w *Writer, isNew bool, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil && !os.IsNotExist(statErr) {
		return nil, false, chemfiles.WrapFileError(statErr, "cannot stat %q", path)
	}
	if statErr != nil || info.Size() == 0 {
		return nil, true, nil
	}

	bf, err := fileio.OpenBinary(path, fileio.ModeAppend, fileio.BigEndian)
	if err != nil {
		return nil, false, err
	}
	bf.Seek(0)

	f := &File{bf: bf, mode: fileio.ModeAppend, recordDimIdx: -1}
	if err := f.readHeader(); err != nil {
		bf.Close()
		return nil, false, err
	}

	bf.Seek(bf.FileSize())
	return &Writer{
		bf:           bf,
		vars:         f.vars,
		recordStride: f.recordStride,
		nRecords:     f.nRecords,
		sealedFloor:  f.nRecords,
		written:      make(map[string]map[int]bool),
	}, false, nil
}

func (f *File) readHeader() error {
	tag, err := f.bf.ReadChar(3)
	if err != nil {
		return err
	}
	if string(tag) != magic {
		return chemError("not a NetCDF file: missing %q magic", magic)
	}
	version, err := f.bf.ReadU8()
	if err != nil {
		return err
	}
	if version != version64BitOff {
		return chemError("unsupported NetCDF format version %d (only 64-bit offset is supported)", version)
	}

	nRecords, err := f.bf.ReadI32()
	if err != nil {
		return err
	}
	f.nRecords = int64(nRecords)

	if err := f.readDimensionList(); err != nil {
		return err
	}

	attrs, err := readAttributeList(f.bf)
	if err != nil {
		return err
	}
	f.globalAttrs = attrs

	if err := f.readVariableList(); err != nil {
		return err
	}

	return nil
}

func (f *File) readDimensionList() error {
	if _, err := f.bf.ReadI32(); err != nil { // tag
		return err
	}
	n, err := f.bf.ReadI32()
	if err != nil {
		return err
	}

	f.dims = make([]Dimension, 0, n)
	for i := int32(0); i < n; i++ {
		name, err := readPString(f.bf)
		if err != nil {
			return err
		}
		size, err := f.bf.ReadI32()
		if err != nil {
			return err
		}
		d := Dimension{Name: name, Size: int(size), IsRecord: size == 0}
		if d.IsRecord {
			if f.recordDimIdx >= 0 {
				return chemError("NetCDF file declares more than one record dimension")
			}
			f.recordDimIdx = len(f.dims)
		}
		f.dims = append(f.dims, d)
	}
	return nil
}

func (f *File) readVariableList() error {
	if _, err := f.bf.ReadI32(); err != nil { // tag
		return err
	}
	n, err := f.bf.ReadI32()
	if err != nil {
		return err
	}

	f.vars = make([]Variable, 0, n)
	for i := int32(0); i < n; i++ {
		name, err := readPString(f.bf)
		if err != nil {
			return err
		}
		nDimRefs, err := f.bf.ReadI32()
		if err != nil {
			return err
		}
		dimIDs := make([]int, nDimRefs)
		isRecord := false
		elementCount := 1
		for j := int32(0); j < nDimRefs; j++ {
			ref, err := f.bf.ReadI32()
			if err != nil {
				return err
			}
			dimIDs[j] = int(ref)
			if int(ref) == f.recordDimIdx {
				isRecord = true
			} else {
				elementCount *= f.dims[ref].Size
			}
		}
		attrs, err := readAttributeList(f.bf)
		if err != nil {
			return err
		}
		typTag, err := f.bf.ReadI32()
		if err != nil {
			return err
		}
		vsize, err := f.bf.ReadI32()
		if err != nil {
			return err
		}
		offset, err := f.bf.ReadI64()
		if err != nil {
			return err
		}

		typ := DataType(typTag)
		v := Variable{
			Name:         name,
			DimIDs:       dimIDs,
			Attributes:   attrs,
			Type:         typ,
			isRecord:     isRecord,
			elementCount: elementCount,
			entrySize:    int64(elementCount) * int64(typ.ElementSize()),
			paddedSize:   int64(vsize),
			offset:       offset,
		}
		if isRecord {
			f.recordStride += v.paddedSize
		}
		f.vars = append(f.vars, v)
	}
	return nil
}

// Dimensions returns the header's dimension list.
func (f *File) Dimensions() []Dimension { return f.dims }

// GlobalAttribute returns a file-level attribute, if present.
func (f *File) GlobalAttribute(name string) (Attribute, bool) {
	for _, a := range f.globalAttrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Variable returns a pointer to the named variable's parsed metadata.
func (f *File) Variable(name string) (*Variable, bool) {
	for i := range f.vars {
		if f.vars[i].Name == name {
			return &f.vars[i], true
		}
	}
	return nil, false
}

// Variables returns every variable's parsed metadata.
func (f *File) Variables() []Variable { return f.vars }

// NRecords returns the current value of the header's n_records slot.
func (f *File) NRecords() int64 { return f.nRecords }

func (f *File) entryOffset(v *Variable, step int) (int64, error) {
	if v.isRecord {
		if int64(step) >= f.nRecords {
			return 0, chemfiles.NewOutOfBounds("NetCDF record %d is past n_records (%d)", step, f.nRecords)
		}
		return v.offset + int64(step)*f.recordStride, nil
	}
	if step != 0 {
		return 0, chemError("variable %q is not a record variable, step must be 0", v.Name)
	}
	return v.offset, nil
}

// ReadFloat32 reads variable v's entry at step as a []float32; v.Type must
// be Float.
func (f *File) ReadFloat32(v *Variable, step int) ([]float32, error) {
	if v.Type != Float {
		return nil, chemError("variable %q is %s, not float", v.Name, v.Type)
	}
	off, err := f.entryOffset(v, step)
	if err != nil {
		return nil, err
	}
	f.bf.Seek(uint64(off))
	return f.bf.ReadF32Array(v.elementCount)
}

// ReadFloat64 reads variable v's entry at step as a []float64; v.Type must
// be Double.
func (f *File) ReadFloat64(v *Variable, step int) ([]float64, error) {
	if v.Type != Double {
		return nil, chemError("variable %q is %s, not double", v.Name, v.Type)
	}
	off, err := f.entryOffset(v, step)
	if err != nil {
		return nil, err
	}
	f.bf.Seek(uint64(off))
	return f.bf.ReadF64Array(v.elementCount)
}

// ReadInt16 reads variable v's entry at step as a []int16; v.Type must be
// Short.
func (f *File) ReadInt16(v *Variable, step int) ([]int16, error) {
	if v.Type != Short {
		return nil, chemError("variable %q is %s, not short", v.Name, v.Type)
	}
	off, err := f.entryOffset(v, step)
	if err != nil {
		return nil, err
	}
	f.bf.Seek(uint64(off))
	out := make([]int16, v.elementCount)
	for i := range out {
		val, err := f.bf.ReadI16()
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// ReadInt32 reads variable v's entry at step as a []int32; v.Type must be
// Int.
func (f *File) ReadInt32(v *Variable, step int) ([]int32, error) {
	if v.Type != Int {
		return nil, chemError("variable %q is %s, not int", v.Name, v.Type)
	}
	off, err := f.entryOffset(v, step)
	if err != nil {
		return nil, err
	}
	f.bf.Seek(uint64(off))
	return f.bf.ReadI32Array(v.elementCount)
}

// ReadChar reads variable v's entry at step as raw bytes; v.Type must be
// Char or Byte.
func (f *File) ReadChar(v *Variable, step int) ([]byte, error) {
	if v.Type != Char && v.Type != Byte {
		return nil, chemError("variable %q is %s, not char/byte", v.Name, v.Type)
	}
	off, err := f.entryOffset(v, step)
	if err != nil {
		return nil, err
	}
	f.bf.Seek(uint64(off))
	return f.bf.ReadChar(v.elementCount)
}

// Close releases the underlying file.
func (f *File) Close() error { return f.bf.Close() }
