package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

const textBufferSize = 32 * 1024 // 8-64 KiB is the sweet spot for sequential line reads

// streamImpl is what TextFile needs from a concrete backend (plain stdio,
// a compression codec, or a memory buffer).
type streamImpl interface {
	io.Reader
	io.Writer
	// reopen returns the stream to its logical byte 0, for backends that
	// cannot seek directly (compressed streams).
	reopen() error
	// directSeek attempts an O(1) seek to offset; ok is false when the
	// backend must fall back to reopen()+discard.
	directSeek(offset int64) (ok bool, err error)
	close() error
}

// TextFile wraps a streamImpl with buffering, line-ending normalisation,
// and logical seek/tell semantics.
type TextFile struct {
	impl    streamImpl
	br      *bufio.Reader
	bw      *bufio.Writer
	pos     int64
	eof     bool
	writing bool
}

func newTextFile(impl streamImpl, writing bool) *TextFile {
	t := &TextFile{impl: impl, writing: writing}
	if writing {
		t.bw = bufio.NewWriterSize(impl, textBufferSize)
	} else {
		t.br = bufio.NewReaderSize(impl, textBufferSize)
	}
	return t
}

// OpenText opens path in mode under the given codec. Append is rejected for
// any codec other than CodecNone, and for memory-backed files (which never
// reach this constructor; see OpenTextMemory).
func OpenText(path string, mode OpenMode, codec Codec) (*TextFile, error) {
	switch mode {
	case ModeRead:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "fileio: open %q for reading", path)
		}
		impl, err := newFileTextImpl(f, codec, false)
		if err != nil {
			f.Close()
			return nil, err
		}
		return newTextFile(impl, false), nil

	case ModeWrite:
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "fileio: create %q", path)
		}
		impl, err := newFileTextImpl(f, codec, true)
		if err != nil {
			f.Close()
			return nil, err
		}
		return newTextFile(impl, true), nil

	case ModeAppend:
		if codec != CodecNone {
			return nil, errors.New("fileio: append mode is not supported for compressed text files")
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "fileio: open %q for append", path)
		}
		impl := &plainTextImpl{f: f}
		return newTextFile(impl, true), nil

	default:
		return nil, errors.Errorf("fileio: unknown open mode %d", mode)
	}
}

// TellPos returns the logical byte offset of the next byte ReadLine/ReadAll
// would return.
func (t *TextFile) TellPos() uint64 { return uint64(t.pos) }

// SeekPos moves the logical read position to target.
func (t *TextFile) SeekPos(target uint64) error {
	if ok, err := t.impl.directSeek(int64(target)); err != nil {
		return errors.Wrap(err, "fileio: seek")
	} else if ok {
		t.br = bufio.NewReaderSize(t.impl, textBufferSize)
		t.pos = int64(target)
		t.eof = false
		return nil
	}

	if err := t.impl.reopen(); err != nil {
		return errors.Wrap(err, "fileio: reopen for seek")
	}
	t.br = bufio.NewReaderSize(t.impl, textBufferSize)
	t.pos = 0
	t.eof = false

	n, err := io.CopyN(io.Discard, t.br, int64(target))
	t.pos += n
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "fileio: discard while seeking")
	}
	if err == io.EOF {
		t.eof = true
	}
	return nil
}

// Rewind is SeekPos(0).
func (t *TextFile) Rewind() error { return t.SeekPos(0) }

// ReadLine reads one line, stripping its \n, \r, or \r\n terminator.
// Reaching EOF mid-line returns the partial line with a nil error and sets
// Eof(); calling ReadLine again afterward returns ("", io.EOF).
func (t *TextFile) ReadLine() (string, error) {
	if t.eof {
		return "", io.EOF
	}

	var buf []byte
	for {
		b, err := t.br.ReadByte()
		if err != nil {
			t.eof = true
			if len(buf) == 0 {
				return "", io.EOF
			}
			return string(buf), nil
		}
		t.pos++

		switch b {
		case '\n':
			return string(buf), nil
		case '\r':
			if next, perr := t.br.Peek(1); perr == nil && len(next) == 1 && next[0] == '\n' {
				t.br.ReadByte()
				t.pos++
			}
			return string(buf), nil
		default:
			buf = append(buf, b)
		}
	}
}

// ReadAll returns the entire remaining contents of the stream as a string.
func (t *TextFile) ReadAll() (string, error) {
	data, err := io.ReadAll(t.br)
	t.pos += int64(len(data))
	t.eof = true
	if err != nil {
		return string(data), errors.Wrap(err, "fileio: read all")
	}
	return string(data), nil
}

// Print writes a formatted string in write mode.
func (t *TextFile) Print(format string, args ...interface{}) error {
	if !t.writing {
		return errors.New("fileio: Print called on a file not opened for writing")
	}
	_, err := fmt.Fprintf(t.bw, format, args...)
	return err
}

// Eof reports whether the last read hit end of stream.
func (t *TextFile) Eof() bool { return t.eof }

// Clear resets the eof flag without moving the read position.
func (t *TextFile) Clear() { t.eof = false }

// Close flushes any pending writes and releases the underlying resource.
// Close never panics; a second call on a file-backed TextFile returns the
// error the underlying file reports for being closed again. Failures are
// reported through the warning channel by callers higher up the stack
// (Close itself still returns the error so Trajectory.Close can decide).
func (t *TextFile) Close() error {
	if t.writing && t.bw != nil {
		if err := t.bw.Flush(); err != nil {
			t.impl.close()
			return errors.Wrap(err, "fileio: flush on close")
		}
	}
	return t.impl.close()
}
