package netcdf

import (
	"math"

	"github.com/chemfiles/go-chemfiles/fileio"
)

// Fill values, per the classic NetCDF default-fill convention.
const (
	FillByte   int8    = -127
	FillChar   byte    = 0
	FillShort  int16   = -32767
	FillInt    int32   = -2147483647
	FillFloat  float32 = 9.9692099683868690e+36
	FillDouble float64 = 9.9692099683868690e+36
)

// fillBytes returns count elements of t's fill value, encoded big-endian.
func fillBytes(t DataType, count int) []byte {
	size := t.ElementSize()
	out := make([]byte, size*count)
	bo := fileio.BigEndian.ByteOrder()

	switch t {
	case Byte:
		for i := 0; i < count; i++ {
			out[i] = byte(FillByte)
		}
	case Char:
		// already zero-valued
	case Short:
		for i := 0; i < count; i++ {
			bo.PutUint16(out[i*2:], uint16(FillShort))
		}
	case Int:
		for i := 0; i < count; i++ {
			bo.PutUint32(out[i*4:], uint32(FillInt))
		}
	case Float:
		bits := math.Float32bits(FillFloat)
		for i := 0; i < count; i++ {
			bo.PutUint32(out[i*4:], bits)
		}
	case Double:
		bits := math.Float64bits(FillDouble)
		for i := 0; i < count; i++ {
			bo.PutUint64(out[i*8:], bits)
		}
	}
	return out
}
