package netcdf

// Variable is one entry of the header's variable list, with the layout
// fields the reader/writer need to locate its data resolved at open/finalize
// time.
type Variable struct {
	Name       string
	DimIDs     []int
	Attributes []Attribute
	Type       DataType

	isRecord bool
	// elementCount is the product of every non-record dimension's size:
	// the number of typed values in one entry (one record, or the whole
	// variable for non-record variables).
	elementCount int
	// entrySize is elementCount * Type.ElementSize(), the unpadded byte
	// size of one entry.
	entrySize int64
	// paddedSize is entrySize rounded up to a 4-byte boundary: the
	// on-disk stride between consecutive entries.
	paddedSize int64
	// offset is the byte offset of entry 0 in the file.
	offset int64
}

// IsRecord reports whether this variable is striped along the record
// dimension.
func (v *Variable) IsRecord() bool { return v.isRecord }

// Attribute returns the named attribute, if present.
func (v *Variable) Attribute(name string) (Attribute, bool) {
	for _, a := range v.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// ElementCount returns the number of typed values in one entry.
func (v *Variable) ElementCount() int { return v.elementCount }
