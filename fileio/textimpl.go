package fileio

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// plainTextImpl backs an uncompressed on-disk TextFile; it supports direct
// seeking since the file itself is randomly addressable.
type plainTextImpl struct {
	f *os.File
}

func (p *plainTextImpl) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *plainTextImpl) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *plainTextImpl) close() error                { return p.f.Close() }

func (p *plainTextImpl) reopen() error {
	_, err := p.f.Seek(0, io.SeekStart)
	return err
}

func (p *plainTextImpl) directSeek(offset int64) (bool, error) {
	_, err := p.f.Seek(offset, io.SeekStart)
	return true, err
}

// compressedTextImpl backs a codec-wrapped on-disk TextFile. Reading is
// stream-oriented: reopen() re-opens the underlying file and rebuilds the
// decoder from byte 0; directSeek always declines, forcing TextFile to
// fall back to reopen()+discard for any seek.
type compressedTextImpl struct {
	path  string
	codec Codec

	f *os.File
	r io.Reader

	// write side
	w       io.Writer
	flushFn func() error
}

func newFileTextImpl(f *os.File, codec Codec, writing bool) (streamImpl, error) {
	if codec == CodecNone {
		return &plainTextImpl{f: f}, nil
	}

	c := &compressedTextImpl{path: f.Name(), codec: codec, f: f}
	if writing {
		w, flush, err := newCompressor(codec, f)
		if err != nil {
			return nil, err
		}
		c.w = w
		c.flushFn = flush
		return c, nil
	}

	r, err := newDecompressor(codec, f)
	if err != nil {
		return nil, err
	}
	c.r = r
	return c, nil
}

func (c *compressedTextImpl) Read(b []byte) (int, error) {
	if c.r == nil {
		return 0, errors.New("fileio: file not opened for reading")
	}
	return c.r.Read(b)
}

func (c *compressedTextImpl) Write(b []byte) (int, error) {
	if c.w == nil {
		return 0, errors.New("fileio: file not opened for writing")
	}
	return c.w.Write(b)
}

func (c *compressedTextImpl) reopen() error {
	if _, err := c.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r, err := newDecompressor(c.codec, c.f)
	if err != nil {
		return err
	}
	c.r = r
	return nil
}

func (c *compressedTextImpl) directSeek(offset int64) (bool, error) {
	return false, nil
}

func (c *compressedTextImpl) close() error {
	var err error
	if c.flushFn != nil {
		err = c.flushFn()
	}
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}
