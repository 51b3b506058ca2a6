package fileio

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// MemoryBuffer holds either an owned growable byte slice (write mode) or a
// borrowed read-only byte range (read mode).
type MemoryBuffer struct {
	writing bool
	data    []byte // write mode: owned and growable
	ro      []byte // read mode: borrowed
}

// NewMemoryWriter returns an empty, growable memory buffer for writing.
func NewMemoryWriter() *MemoryBuffer {
	return &MemoryBuffer{writing: true}
}

// NewMemoryReader wraps data (not copied) for reading.
func NewMemoryReader(data []byte) *MemoryBuffer {
	return &MemoryBuffer{ro: data}
}

// Bytes returns the buffer's contents: the owned slice in write mode, or
// the borrowed range in read mode.
func (m *MemoryBuffer) Bytes() []byte {
	if m.writing {
		return m.data
	}
	return m.ro
}

// Decompress eagerly decompresses the buffer's contents in place under
// codec. Only valid for a read-mode buffer.
func (m *MemoryBuffer) Decompress(codec Codec) error {
	if m.writing {
		return errors.New("fileio: cannot decompress a write-mode memory buffer")
	}
	out, err := decompressAll(codec, m.ro)
	if err != nil {
		return err
	}
	m.ro = out
	return nil
}

// memoryTextImpl lets MemoryBuffer back a TextFile. Compressed write mode
// is intentionally unsupported: OpenTextMemory rejects it before ever
// constructing this type.
type memoryTextImpl struct {
	buf *MemoryBuffer
	r   *bytes.Reader // read mode cursor
}

func newMemoryTextImpl(buf *MemoryBuffer) *memoryTextImpl {
	m := &memoryTextImpl{buf: buf}
	if !buf.writing {
		m.r = bytes.NewReader(buf.ro)
	}
	return m
}

func (m *memoryTextImpl) Read(b []byte) (int, error) {
	if m.r == nil {
		return 0, errors.New("fileio: memory buffer not opened for reading")
	}
	return m.r.Read(b)
}

func (m *memoryTextImpl) Write(b []byte) (int, error) {
	if !m.buf.writing {
		return 0, errors.New("fileio: memory buffer not opened for writing")
	}
	m.buf.data = append(m.buf.data, b...)
	return len(b), nil
}

func (m *memoryTextImpl) reopen() error {
	if m.r == nil {
		return errors.New("fileio: memory buffer not opened for reading")
	}
	m.r = bytes.NewReader(m.buf.ro)
	return nil
}

func (m *memoryTextImpl) directSeek(offset int64) (bool, error) {
	if m.r == nil {
		return false, errors.New("fileio: memory buffer not opened for reading")
	}
	_, err := m.r.Seek(offset, io.SeekStart)
	return true, err
}

func (m *memoryTextImpl) close() error { return nil }

// OpenTextMemory opens buf as a TextFile. Append is never valid for a
// memory buffer, and neither is a compressed write-mode buffer; both are
// rejected here.
func OpenTextMemory(buf *MemoryBuffer, mode OpenMode, codec Codec) (*TextFile, error) {
	switch mode {
	case ModeAppend:
		return nil, errors.New("fileio: append mode is not supported for memory-backed files")
	case ModeWrite:
		if codec != CodecNone {
			return nil, errors.New("fileio: compressed write mode is not supported for memory-backed files")
		}
		if !buf.writing {
			return nil, errors.New("fileio: buffer was not opened for writing")
		}
		return newTextFile(newMemoryTextImpl(buf), true), nil
	case ModeRead:
		if buf.writing {
			return nil, errors.New("fileio: buffer was not opened for reading")
		}
		if codec != CodecNone {
			if err := buf.Decompress(codec); err != nil {
				return nil, err
			}
		}
		return newTextFile(newMemoryTextImpl(buf), false), nil
	default:
		return nil, errors.Errorf("fileio: unknown open mode %d", mode)
	}
}
