package fileio

import (
	"encoding/binary"
	"math"
	"math/bits"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Endian selects the byte order a BinaryFile's typed reads/writes use.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

// ByteOrder returns the stdlib binary.ByteOrder matching e.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// writeWindow is the virtual mapping size a write/append-mode BinaryFile
// grows by, in page-multiple chunks, as it is extended.
const writeWindow = 1 << 30 // 1 GiB

// use64BitMmap gates the mmap backing strategy: on anything but a 64-bit
// platform, address-space pressure makes a multi-gigabyte virtual window
// unsafe, so BinaryFile falls back to buffered stdio with an explicit
// position instead.
var use64BitMmap = bits.UintSize == 64

// BinaryFile is a random-access binary file with a fixed endianness,
// backed by mmap on 64-bit platforms and by buffered stdio elsewhere.
type BinaryFile struct {
	f      *os.File
	endian Endian
	mode   OpenMode

	// mmap backing
	mm   mmap.MMap
	data []byte // data[:size] is the logical file content

	pos  int64 // current read/write cursor
	size int64 // logical bytes written/available
}

// OpenBinary opens path in mode with the given endianness.
func OpenBinary(path string, mode OpenMode, endian Endian) (*BinaryFile, error) {
	var (
		f   *os.File
		err error
	)

	switch mode {
	case ModeRead:
		f, err = os.Open(path)
	case ModeWrite:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	case ModeAppend:
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	default:
		return nil, errors.Errorf("fileio: unknown open mode %d", mode)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fileio: open %q", path)
	}

	bf := &BinaryFile{f: f, endian: endian, mode: mode}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "fileio: stat")
	}
	bf.size = info.Size()

	if mode == ModeAppend {
		bf.pos = bf.size
	}

	if err := bf.remap(bf.targetWindow()); err != nil {
		f.Close()
		return nil, err
	}

	return bf, nil
}

// targetWindow returns the mmap window size needed for the current mode
// and logical size: exactly the file size for read mode, or the next
// writeWindow-multiple past it otherwise.
func (bf *BinaryFile) targetWindow() int64 {
	if bf.mode == ModeRead {
		return bf.size
	}
	windows := bf.size/writeWindow + 1
	return windows * writeWindow
}

// remap (re)establishes the mmap (or stdio) backing at the given window
// size, preserving already-written bytes.
func (bf *BinaryFile) remap(window int64) error {
	if !use64BitMmap {
		return nil // stdio fallback: nothing to map
	}

	if bf.mm != nil {
		if err := bf.mm.Unmap(); err != nil {
			return errors.Wrap(err, "fileio: unmap")
		}
		bf.mm = nil
	}

	if window == 0 {
		bf.data = nil
		return nil
	}

	if bf.mode != ModeRead {
		if err := bf.f.Truncate(window); err != nil {
			return errors.Wrap(err, "fileio: truncate for mmap window")
		}
	}

	prot := mmap.RDONLY
	if bf.mode != ModeRead {
		prot = mmap.RDWR
	}
	mm, err := mmap.MapRegion(bf.f, int(window), prot, 0, 0)
	if err != nil {
		return errors.Wrap(err, "fileio: mmap")
	}
	bf.mm = mm
	bf.data = []byte(mm)
	return nil
}

// ensureCapacity grows the mmap window (remapping) when a write would
// extend past the current mapped length. It is a no-op on the stdio
// fallback, where os.File.WriteAt grows the file naturally.
func (bf *BinaryFile) ensureCapacity(end int64) error {
	if !use64BitMmap {
		return nil
	}
	if end <= int64(len(bf.data)) {
		return nil
	}
	windows := end/writeWindow + 1
	return bf.remap(windows * writeWindow)
}

// Tell returns the current cursor position.
func (bf *BinaryFile) Tell() uint64 { return uint64(bf.pos) }

// Seek moves the cursor to an absolute byte offset.
func (bf *BinaryFile) Seek(pos uint64) { bf.pos = int64(pos) }

// Skip advances the cursor by n bytes.
func (bf *BinaryFile) Skip(n uint64) { bf.pos += int64(n) }

// FileSize returns the number of logical bytes written/available.
func (bf *BinaryFile) FileSize() uint64 { return uint64(bf.size) }

func (bf *BinaryFile) bumpSize() {
	if bf.pos > bf.size {
		bf.size = bf.pos
	}
}

// readRaw reads exactly n bytes at the current cursor and advances it.
func (bf *BinaryFile) readRaw(n int) ([]byte, error) {
	if bf.pos+int64(n) > bf.size {
		return nil, errors.Errorf("fileio: read past end of file (at %d, size %d, want %d bytes)", bf.pos, bf.size, n)
	}

	if use64BitMmap {
		b := bf.data[bf.pos : bf.pos+int64(n)]
		bf.pos += int64(n)
		return b, nil
	}

	buf := make([]byte, n)
	if _, err := bf.f.ReadAt(buf, bf.pos); err != nil {
		return nil, errors.Wrap(err, "fileio: read")
	}
	bf.pos += int64(n)
	return buf, nil
}

// writeRaw writes b at the current cursor, growing the file/mapping as
// needed, and advances the cursor.
func (bf *BinaryFile) writeRaw(b []byte) error {
	end := bf.pos + int64(len(b))
	if err := bf.ensureCapacity(end); err != nil {
		return err
	}

	if use64BitMmap {
		copy(bf.data[bf.pos:end], b)
	} else {
		if _, err := bf.f.WriteAt(b, bf.pos); err != nil {
			return errors.Wrap(err, "fileio: write")
		}
	}
	bf.pos = end
	bf.bumpSize()
	return nil
}

// ReadChar reads count raw bytes (no endian conversion).
func (bf *BinaryFile) ReadChar(count int) ([]byte, error) {
	b, err := bf.readRaw(count)
	if err != nil {
		return nil, err
	}
	out := make([]byte, count)
	copy(out, b)
	return out, nil
}

// WriteChar writes raw bytes verbatim.
func (bf *BinaryFile) WriteChar(b []byte) error { return bf.writeRaw(b) }

// Endian reports the byte order used by the typed read/write methods.
func (bf *BinaryFile) Endian() Endian { return bf.endian }

func (bf *BinaryFile) ReadU8() (uint8, error) {
	b, err := bf.readRaw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (bf *BinaryFile) ReadI8() (int8, error) {
	v, err := bf.ReadU8()
	return int8(v), err
}

func (bf *BinaryFile) WriteU8(v uint8) error { return bf.writeRaw([]byte{v}) }
func (bf *BinaryFile) WriteI8(v int8) error  { return bf.WriteU8(uint8(v)) }

func (bf *BinaryFile) ReadU16() (uint16, error) {
	b, err := bf.readRaw(2)
	if err != nil {
		return 0, err
	}
	return bf.endian.ByteOrder().Uint16(b), nil
}

func (bf *BinaryFile) ReadI16() (int16, error) {
	v, err := bf.ReadU16()
	return int16(v), err
}

func (bf *BinaryFile) WriteU16(v uint16) error {
	b := make([]byte, 2)
	bf.endian.ByteOrder().PutUint16(b, v)
	return bf.writeRaw(b)
}

func (bf *BinaryFile) WriteI16(v int16) error { return bf.WriteU16(uint16(v)) }

func (bf *BinaryFile) ReadU32() (uint32, error) {
	b, err := bf.readRaw(4)
	if err != nil {
		return 0, err
	}
	return bf.endian.ByteOrder().Uint32(b), nil
}

func (bf *BinaryFile) ReadI32() (int32, error) {
	v, err := bf.ReadU32()
	return int32(v), err
}

func (bf *BinaryFile) WriteU32(v uint32) error {
	b := make([]byte, 4)
	bf.endian.ByteOrder().PutUint32(b, v)
	return bf.writeRaw(b)
}

func (bf *BinaryFile) WriteI32(v int32) error { return bf.WriteU32(uint32(v)) }

func (bf *BinaryFile) ReadU64() (uint64, error) {
	b, err := bf.readRaw(8)
	if err != nil {
		return 0, err
	}
	return bf.endian.ByteOrder().Uint64(b), nil
}

func (bf *BinaryFile) ReadI64() (int64, error) {
	v, err := bf.ReadU64()
	return int64(v), err
}

func (bf *BinaryFile) WriteU64(v uint64) error {
	b := make([]byte, 8)
	bf.endian.ByteOrder().PutUint64(b, v)
	return bf.writeRaw(b)
}

func (bf *BinaryFile) WriteI64(v int64) error { return bf.WriteU64(uint64(v)) }

func (bf *BinaryFile) ReadF32() (float32, error) {
	v, err := bf.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (bf *BinaryFile) WriteF32(v float32) error { return bf.WriteU32(math.Float32bits(v)) }

func (bf *BinaryFile) ReadF64() (float64, error) {
	v, err := bf.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (bf *BinaryFile) WriteF64(v float64) error { return bf.WriteU64(math.Float64bits(v)) }

// ReadF32Array reads count consecutive float32 values.
func (bf *BinaryFile) ReadF32Array(count int) ([]float32, error) {
	out := make([]float32, count)
	for i := range out {
		v, err := bf.ReadF32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteF32Array writes a slice of float32 values consecutively.
func (bf *BinaryFile) WriteF32Array(vs []float32) error {
	for _, v := range vs {
		if err := bf.WriteF32(v); err != nil {
			return err
		}
	}
	return nil
}

// ReadF64Array reads count consecutive float64 values.
func (bf *BinaryFile) ReadF64Array(count int) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		v, err := bf.ReadF64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteF64Array writes a slice of float64 values consecutively.
func (bf *BinaryFile) WriteF64Array(vs []float64) error {
	for _, v := range vs {
		if err := bf.WriteF64(v); err != nil {
			return err
		}
	}
	return nil
}

// ReadI32Array reads count consecutive int32 values.
func (bf *BinaryFile) ReadI32Array(count int) ([]int32, error) {
	out := make([]int32, count)
	for i := range out {
		v, err := bf.ReadI32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteI32Array writes a slice of int32 values consecutively.
func (bf *BinaryFile) WriteI32Array(vs []int32) error {
	for _, v := range vs {
		if err := bf.WriteI32(v); err != nil {
			return err
		}
	}
	return nil
}

// Close truncates the file to its logical size and releases all
// resources. Close is idempotent.
func (bf *BinaryFile) Close() error {
	if bf.f == nil {
		return nil
	}

	var err error
	if use64BitMmap && bf.mm != nil {
		if uerr := bf.mm.Unmap(); uerr != nil {
			err = errors.Wrap(uerr, "fileio: unmap on close")
		}
		bf.mm = nil
		bf.data = nil
	}

	if bf.mode != ModeRead {
		if terr := bf.f.Truncate(bf.size); terr != nil && err == nil {
			err = errors.Wrap(terr, "fileio: truncate on close")
		}
	}

	if cerr := bf.f.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "fileio: close")
	}
	bf.f = nil
	return err
}
