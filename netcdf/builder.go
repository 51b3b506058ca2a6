package netcdf

import (
	"github.com/chemfiles/go-chemfiles/fileio"
)

// varSpec is one variable declaration accumulated by a Builder before
// Finalize resolves it into a laid-out Variable.
type varSpec struct {
	name       string
	typ        DataType
	dimIDs     []int
	attributes []Attribute
}

// Builder accumulates a NetCDF-3 file's dimensions, global attributes, and
// variables before Finalize commits them to disk.
type Builder struct {
	dims         []Dimension
	recordDimIdx int
	globalAttrs  []Attribute
	varSpecs     []varSpec
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{recordDimIdx: -1}
}

// AddDimension declares a dimension. size == 0 marks it as the record
// dimension; only one is allowed. Returns the dimension's id, for use in
// AddVariable's dimIDs.
func (b *Builder) AddDimension(name string, size int) (int, error) {
	if size == 0 {
		if b.recordDimIdx >= 0 {
			return 0, chemError("NetCDF builder: only one record dimension is allowed")
		}
		b.recordDimIdx = len(b.dims)
	}
	b.dims = append(b.dims, Dimension{Name: name, Size: size, IsRecord: size == 0})
	return len(b.dims) - 1, nil
}

// AddAttribute declares a file-level (global) attribute.
func (b *Builder) AddAttribute(a Attribute) {
	b.globalAttrs = append(b.globalAttrs, a)
}

// AddVariable declares a variable over dimIDs (as returned by AddDimension),
// in declaration order, with type typ and the given attributes. A variable
// whose dimIDs includes the record dimension is striped along it.
func (b *Builder) AddVariable(name string, typ DataType, dimIDs []int, attrs []Attribute) (int, error) {
	for _, id := range dimIDs {
		if id < 0 || id >= len(b.dims) {
			return 0, chemError("NetCDF builder: variable %q references unknown dimension id %d", name, id)
		}
	}
	b.varSpecs = append(b.varSpecs, varSpec{name: name, typ: typ, dimIDs: dimIDs, attributes: attrs})
	return len(b.varSpecs) - 1, nil
}

// Finalize lays out the header, writes it (and the non-record region's fill
// values) to path, and returns a Writer ready for AddRecord and the Write* methods.
func (b *Builder) Finalize(path string) (*Writer, error) {
	vars := make([]Variable, len(b.varSpecs))
	for i, spec := range b.varSpecs {
		isRecord := false
		elementCount := 1
		for _, id := range spec.dimIDs {
			if id == b.recordDimIdx {
				isRecord = true
				continue
			}
			elementCount *= b.dims[id].Size
		}
		entrySize := int64(elementCount) * int64(spec.typ.ElementSize())
		vars[i] = Variable{
			Name:         spec.name,
			DimIDs:       spec.dimIDs,
			Attributes:   spec.attributes,
			Type:         spec.typ,
			isRecord:     isRecord,
			elementCount: elementCount,
			entrySize:    entrySize,
			paddedSize:   entrySize + pad4(entrySize),
		}
	}

	bf, err := fileio.OpenBinary(path, fileio.ModeWrite, fileio.BigEndian)
	if err != nil {
		return nil, err
	}

	if err := bf.WriteChar([]byte(magic)); err != nil {
		bf.Close()
		return nil, err
	}
	if err := bf.WriteU8(version64BitOff); err != nil {
		bf.Close()
		return nil, err
	}
	if err := bf.WriteI32(0); err != nil { // n_records, finalised at 0
		bf.Close()
		return nil, err
	}

	if err := writeDimensionList(bf, b.dims); err != nil {
		bf.Close()
		return nil, err
	}
	if err := writeAttributeList(bf, b.globalAttrs); err != nil {
		bf.Close()
		return nil, err
	}

	// Pre-compute offsets: non-record variables packed first (each padded
	// to 4 bytes), then record variables interleaved per step with
	// cumulative offsets within one record's stride.
	headerVarListPos := headerSizeUpperBound(b.dims, b.globalAttrs, vars)
	nonRecordCursor := headerVarListPos
	var recordStride int64
	for i := range vars {
		if vars[i].isRecord {
			recordStride += vars[i].paddedSize
		}
	}
	for i := range vars {
		if !vars[i].isRecord {
			vars[i].offset = nonRecordCursor
			nonRecordCursor += vars[i].paddedSize
		}
	}
	recordRegionStart := nonRecordCursor
	recordCursor := int64(0)
	for i := range vars {
		if vars[i].isRecord {
			vars[i].offset = recordRegionStart + recordCursor
			recordCursor += vars[i].paddedSize
		}
	}

	if err := writeVariableList(bf, vars); err != nil {
		bf.Close()
		return nil, err
	}

	// At this point the cursor should be exactly at headerVarListPos, since
	// headerSizeUpperBound predicted the header's encoded size.
	if bf.Tell() != uint64(headerVarListPos) {
		bf.Close()
		return nil, chemError("NetCDF builder: internal header size mismatch (wrote %d, predicted %d)", bf.Tell(), headerVarListPos)
	}

	for i := range vars {
		if vars[i].isRecord {
			continue
		}
		bf.Seek(uint64(vars[i].offset))
		if err := bf.WriteChar(fillBytes(vars[i].Type, vars[i].elementCount)); err != nil {
			bf.Close()
			return nil, err
		}
		if pad := pad4(vars[i].entrySize); pad > 0 {
			if err := bf.WriteChar(make([]byte, pad)); err != nil {
				bf.Close()
				return nil, err
			}
		}
	}

	return &Writer{
		bf:           bf,
		vars:         vars,
		recordStride: recordStride,
		written:      make(map[string]map[int]bool),
	}, nil
}

func writeDimensionList(bf *fileio.BinaryFile, dims []Dimension) error {
	if len(dims) == 0 {
		if err := bf.WriteI32(tagAbsent); err != nil {
			return err
		}
		return bf.WriteI32(0)
	}
	if err := bf.WriteI32(tagDimension); err != nil {
		return err
	}
	if err := bf.WriteI32(int32(len(dims))); err != nil {
		return err
	}
	for _, d := range dims {
		if err := writePString(bf, d.Name); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(d.Size)); err != nil {
			return err
		}
	}
	return nil
}

func writeVariableList(bf *fileio.BinaryFile, vars []Variable) error {
	if len(vars) == 0 {
		if err := bf.WriteI32(tagAbsent); err != nil {
			return err
		}
		return bf.WriteI32(0)
	}
	if err := bf.WriteI32(tagVariable); err != nil {
		return err
	}
	if err := bf.WriteI32(int32(len(vars))); err != nil {
		return err
	}
	for _, v := range vars {
		if err := writePString(bf, v.Name); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(len(v.DimIDs))); err != nil {
			return err
		}
		for _, id := range v.DimIDs {
			if err := bf.WriteI32(int32(id)); err != nil {
				return err
			}
		}
		if err := writeAttributeList(bf, v.Attributes); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(v.Type)); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(v.paddedSize)); err != nil {
			return err
		}
		if err := bf.WriteI64(v.offset); err != nil {
			return err
		}
	}
	return nil
}

// headerSizeUpperBound computes the exact encoded byte size of everything
// from the magic through the variable list, so variable offsets can be
// assigned before the variable list (which embeds those offsets) is itself
// written.
func headerSizeUpperBound(dims []Dimension, globalAttrs []Attribute, vars []Variable) int64 {
	size := int64(4 + 4) // magic+version, n_records
	size += listSize(len(dims), func(i int) int64 { return pstrSize(dims[i].Name) + 4 })
	size += attributeListSize(globalAttrs)
	size += listSize(len(vars), func(i int) int64 {
		v := vars[i]
		s := pstrSize(v.Name) + 4 + 4*int64(len(v.DimIDs))
		s += attributeListSize(v.Attributes)
		s += 4 + 4 + 8 // type, vsize, offset
		return s
	})
	return size
}

func listSize(n int, entry func(i int) int64) int64 {
	size := int64(4 + 4) // tag + count
	for i := 0; i < n; i++ {
		size += entry(i)
	}
	return size
}

func attributeListSize(attrs []Attribute) int64 {
	size := int64(4 + 4)
	for _, a := range attrs {
		size += pstrSize(a.Name)
		size += 4 + 4 // type, count
		valSize := int64(a.n) * int64(a.Type.ElementSize())
		size += valSize + pad4(valSize)
	}
	return size
}

func pstrSize(s string) int64 {
	return 4 + int64(len(s)) + pad4(int64(len(s)))
}
