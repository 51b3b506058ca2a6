// Package netcdf implements the classic NetCDF-3 64-bit-offset container
// format — the generic dimension/attribute/variable/record model — plus a
// chemfiles.Format adapter that maps it onto Frame using the Amber
// trajectory convention (coordinates/cell_lengths/cell_angles variables
// striped along a record dimension).
package netcdf

import (
	"math"

	"github.com/chemfiles/go-chemfiles/fileio"
)

// DataType is one of the six element types NetCDF-3 classic supports. The
// numeric values are the on-disk tags, not arbitrary enum indices.
type DataType int32

const (
	Byte   DataType = 1
	Char   DataType = 2
	Short  DataType = 3
	Int    DataType = 4
	Float  DataType = 5
	Double DataType = 6
)

// ElementSize returns the on-disk size, in bytes, of one value of t.
func (t DataType) ElementSize() int {
	switch t {
	case Byte, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

func (t DataType) String() string {
	switch t {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// pad4 returns the number of zero bytes needed to bring n up to the next
// multiple of 4.
func pad4(n int64) int64 {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// Dimension is one entry of the header's dimension list. A Size of 0 marks
// the (at most one) record dimension, whose true length is tracked in the
// file's n_records header slot instead.
type Dimension struct {
	Name     string
	Size     int
	IsRecord bool
}

// Attribute is a named, typed array of values attached to a variable or to
// the file as a whole.
type Attribute struct {
	Name string
	Type DataType
	n    int
	raw  []byte
}

// NewStringAttribute builds a Char attribute from a Go string.
func NewStringAttribute(name, value string) Attribute {
	return Attribute{Name: name, Type: Char, n: len(value), raw: []byte(value)}
}

// NewFloat64Attribute builds a Double attribute.
func NewFloat64Attribute(name string, values []float64) Attribute {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		fileio.BigEndian.ByteOrder().PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return Attribute{Name: name, Type: Double, n: len(values), raw: raw}
}

// NewInt32Attribute builds an Int attribute.
func NewInt32Attribute(name string, values []int32) Attribute {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		fileio.BigEndian.ByteOrder().PutUint32(raw[i*4:], uint32(v))
	}
	return Attribute{Name: name, Type: Int, n: len(values), raw: raw}
}

// Count returns the number of elements stored in the attribute.
func (a Attribute) Count() int { return a.n }

// AsString returns the attribute's value as a string; only meaningful for
// Char attributes.
func (a Attribute) AsString() string { return string(a.raw) }

// AsFloat64s decodes a Double (or Float, widened) attribute.
func (a Attribute) AsFloat64s() []float64 {
	out := make([]float64, a.n)
	bo := fileio.BigEndian.ByteOrder()
	for i := range out {
		switch a.Type {
		case Double:
			out[i] = math.Float64frombits(bo.Uint64(a.raw[i*8:]))
		case Float:
			out[i] = float64(math.Float32frombits(bo.Uint32(a.raw[i*4:])))
		}
	}
	return out
}
