// Package fileio implements the File stack: a buffered, multi-codec text
// file, a random-access memory-mapped binary file with endian-normalised
// primitive I/O, and an in-memory byte buffer that can back a text file. Leaf format
// packages (netcdf, dcd) build on this instead of touching os.File
// directly.
package fileio

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Codec identifies a transparent (de)compression layer for a TextFile.
type Codec int

const (
	CodecNone Codec = iota
	CodecGZ
	CodecBZ2
	CodecXZ
)

// newDecompressor wraps r with a one-shot decoder for codec. Every codec is
// opened fresh from byte 0 of the underlying stream; random access is
// implemented above this by re-invoking newDecompressor and discarding.
// This is the same reset-and-discard strategy for all three codecs,
// including xz, since the xz library used here does not expose
// block-level random access (see DESIGN.md).
func newDecompressor(codec Codec, r io.Reader) (io.Reader, error) {
	switch codec {
	case CodecNone:
		return r, nil
	case CodecGZ:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "fileio: open gzip stream")
		}
		return gr, nil
	case CodecBZ2:
		return bzip2.NewReader(r), nil
	case CodecXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "fileio: open xz stream")
		}
		return xr, nil
	default:
		return nil, errors.Errorf("fileio: unknown codec %d", codec)
	}
}

// newCompressor wraps w with an encoder for codec. Returns the encoder and
// a flush/close function that must run when the caller is done writing.
func newCompressor(codec Codec, w io.Writer) (io.Writer, func() error, error) {
	switch codec {
	case CodecNone:
		return w, func() error { return nil }, nil
	case CodecGZ:
		gw := gzip.NewWriter(w)
		return gw, gw.Close, nil
	case CodecBZ2:
		bw, err := dsnetbzip2.NewWriter(w, nil)
		if err != nil {
			return nil, nil, errors.Wrap(err, "fileio: open bzip2 writer")
		}
		return bw, bw.Close, nil
	case CodecXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, errors.Wrap(err, "fileio: open xz writer")
		}
		return xw, xw.Close, nil
	default:
		return nil, nil, errors.Errorf("fileio: unknown codec %d", codec)
	}
}

// decompressAll eagerly decompresses the entirety of data under codec, used
// by MemoryBuffer.Decompress.
func decompressAll(codec Codec, data []byte) ([]byte, error) {
	if codec == CodecNone {
		return data, nil
	}
	r, err := newDecompressor(codec, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "fileio: decompress buffer")
	}
	return out, nil
}
