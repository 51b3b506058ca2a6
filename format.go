package chemfiles

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// OpenMode selects how a Trajectory or Format accesses its underlying file.
type OpenMode int

const (
	ModeRead OpenMode = iota
	ModeWrite
	ModeAppend
)

// Compression identifies a transparent codec layered under a text-oriented
// format. Binary formats (NetCDF-3, DCD) require CompressionNone: they need
// random access that a stream codec cannot offer cheaply.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionBZ2
	CompressionXZ
)

// String renders the compression as it appears in a format hint string,
// e.g. "GZ". CompressionNone renders as "".
func (c Compression) String() string {
	switch c {
	case CompressionGZ:
		return "GZ"
	case CompressionBZ2:
		return "BZ2"
	case CompressionXZ:
		return "XZ"
	default:
		return ""
	}
}

func parseCompression(s string) (Compression, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return CompressionNone, nil
	case "GZ":
		return CompressionGZ, nil
	case "BZ2":
		return CompressionBZ2, nil
	case "XZ":
		return CompressionXZ, nil
	default:
		return CompressionNone, NewFormatError("unknown compression %q", s)
	}
}

// Capabilities declares what a format can read and/or write.
type Capabilities struct {
	Read       bool
	Write      bool
	Memory     bool
	Positions  bool
	Velocities bool
	UnitCell   bool
	Atoms      bool
	Bonds      bool
	Residues   bool
}

// FormatMetadata is the human-readable description a format contributes to
// the registry.
type FormatMetadata struct {
	Name         string
	Extension    string // primary extension, including the leading dot, e.g. ".nc"
	Capabilities Capabilities
}

// Format is the capability set every trajectory format implements.
type Format interface {
	NSteps() (uint64, error)
	Read(frame *Frame) error
	ReadStep(step uint64, frame *Frame) error
	Write(frame *Frame) error
	Close() error
}

// Creator opens a disk-backed Format at path.
type Creator func(path string, mode OpenMode, compression Compression) (Format, error)

// MemoryCreator opens a Format backed by an in-memory buffer. The returned
// snapshot function reads the format's live buffer contents at any later
// time (needed for memory_writer, whose buffer grows as frames are
// written). Formats that don't support memory I/O leave this nil.
type MemoryCreator func(mode OpenMode, initial []byte) (format Format, snapshot func() []byte, err error)

// RegisteredFormat bundles a format's metadata with its constructors.
type RegisteredFormat struct {
	Metadata      FormatMetadata
	Creator       Creator
	MemoryCreator MemoryCreator
}

var (
	registryMu sync.RWMutex
	byName     = map[string]RegisteredFormat{}
	byExt      = map[string]RegisteredFormat{}
)

// RegisterFormat lets a leaf package (netcdf, dcd, …) announce itself to
// the registry, by name and by extension. Call this from the leaf
// package's init().
func RegisterFormat(metadata FormatMetadata, creator Creator, memoryCreator MemoryCreator) {
	registryMu.Lock()
	defer registryMu.Unlock()

	rf := RegisteredFormat{metadata, creator, memoryCreator}
	byName[strings.ToUpper(metadata.Name)] = rf
	if metadata.Extension != "" {
		byExt[strings.ToLower(metadata.Extension)] = rf
	}
}

func lookupByName(name string) (RegisteredFormat, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	rf, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return RegisteredFormat{}, NewFormatError("unknown format %q", name)
	}
	return rf, nil
}

func lookupByExtension(ext string) (RegisteredFormat, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	rf, ok := byExt[strings.ToLower(ext)]
	if !ok {
		return RegisteredFormat{}, NewFormatError("no format registered for extension %q", ext)
	}
	return rf, nil
}

// ParseFormatHint splits a format hint string of the grammar
// "<FormatName>" or "<FormatName> / <Compression>" into its parts.
func ParseFormatHint(hint string) (name string, compression Compression, err error) {
	hint = strings.TrimSpace(hint)
	parts := strings.SplitN(hint, "/", 2)
	name = strings.TrimSpace(parts[0])
	if name == "" {
		return "", CompressionNone, NewFormatError("empty format hint")
	}
	if len(parts) == 1 {
		return name, CompressionNone, nil
	}
	compression, err = parseCompression(parts[1])
	if err != nil {
		return "", CompressionNone, err
	}
	return name, compression, nil
}

// FormatCompressionString renders name/compression back into the hint
// grammar ParseFormatHint accepts, e.g. "XYZ / GZ".
func FormatCompressionString(name string, compression Compression) string {
	if compression == CompressionNone {
		return name
	}
	return name + " / " + compression.String()
}

var compressionSuffixes = map[string]Compression{
	".gz":  CompressionGZ,
	".bz2": CompressionBZ2,
	".xz":  CompressionXZ,
}

// splitCompressionSuffix peels a trailing .gz/.bz2/.xz suffix from path,
// returning the remaining path and the detected compression.
func splitCompressionSuffix(path string) (string, Compression) {
	for suffix, c := range compressionSuffixes {
		if strings.HasSuffix(strings.ToLower(path), suffix) {
			return path[:len(path)-len(suffix)], c
		}
	}
	return path, CompressionNone
}

func extensionOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

// GuessFormat peels an optional compression suffix from path, then looks
// the remaining extension up in the registry, returning a hint string of
// the same grammar ParseFormatHint accepts (e.g. "XYZ / GZ"). The
// ambiguous ".cif" extension is disambiguated in read mode by sniffing the
// first ~1KiB of decompressed text.
func GuessFormat(path string, mode OpenMode) (string, error) {
	stripped, compression := splitCompressionSuffix(path)
	ext := strings.ToLower(extensionOf(stripped))

	if ext == ".cif" && mode == ModeRead {
		name, err := sniffCIF(path, compression)
		if err != nil {
			return "", err
		}
		return FormatCompressionString(name, compression), nil
	}

	rf, err := lookupByExtension(ext)
	if err != nil {
		return "", errors.Wrapf(err, "cannot guess format for %q", path)
	}
	return FormatCompressionString(rf.Metadata.Name, compression), nil
}
