package dcd

import (
	"os"
	"strings"

	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/fileio"
)

// headerInfo is the decoded content of a DCD file's first ("CORD") record.
type headerInfo struct {
	nFrames       int32
	startStep     int32
	stepStride    int32
	nFixedAtoms   int32
	dt            float64
	hasUnitCell   bool
	has4D         bool
	charmmVersion int32
}

// readHeaderInfo decodes the "CORD" record. The dt field's width (4 bytes
// for CHARMM, 8 for X-PLOR) is recovered from the record's own marker,
// since charmm_version — the field that would otherwise disambiguate it —
// appears later in the same record.
func readHeaderInfo(bf *fileio.BinaryFile, markerWidth int) (headerInfo, error) {
	n, err := readMarker(bf, markerWidth)
	if err != nil {
		return headerInfo{}, chemfiles.WrapFormatError(err, "cannot read DCD header record marker")
	}
	dtBytes := n - headerFixedSize
	if dtBytes != 4 && dtBytes != 8 {
		return headerInfo{}, chemfiles.NewFormatError("DCD header record has implausible size %d", n)
	}

	tag, err := bf.ReadChar(4)
	if err != nil {
		return headerInfo{}, chemfiles.WrapFormatError(err, "cannot read DCD tag")
	}
	if string(tag) == "VELD" {
		return headerInfo{}, chemfiles.NewFormatError("DCD velocity files are not supported")
	}
	if string(tag) != "CORD" {
		return headerInfo{}, chemfiles.NewFormatError("unrecognised DCD tag %q", tag)
	}

	var h headerInfo
	nFrames, err := bf.ReadI32()
	if err != nil {
		return headerInfo{}, err
	}
	h.nFrames = nFrames

	if h.startStep, err = bf.ReadI32(); err != nil {
		return headerInfo{}, err
	}
	if h.stepStride, err = bf.ReadI32(); err != nil {
		return headerInfo{}, err
	}
	if _, err = bf.ReadI32(); err != nil { // n_steps, unused
		return headerInfo{}, err
	}
	if _, err = bf.ReadChar(16); err != nil {
		return headerInfo{}, err
	}
	if h.nFixedAtoms, err = bf.ReadI32(); err != nil {
		return headerInfo{}, err
	}

	if dtBytes == 4 {
		v, err := bf.ReadF32()
		if err != nil {
			return headerInfo{}, err
		}
		h.dt = float64(v)
	} else {
		v, err := bf.ReadF64()
		if err != nil {
			return headerInfo{}, err
		}
		h.dt = v
	}

	hasUnitCell, err := bf.ReadI32()
	if err != nil {
		return headerInfo{}, err
	}
	h.hasUnitCell = hasUnitCell != 0

	has4D, err := bf.ReadI32()
	if err != nil {
		return headerInfo{}, err
	}
	h.has4D = has4D != 0

	if _, err = bf.ReadChar(28); err != nil {
		return headerInfo{}, err
	}
	if h.charmmVersion, err = bf.ReadI32(); err != nil {
		return headerInfo{}, err
	}

	n2, err := readMarker(bf, markerWidth)
	if err != nil {
		return headerInfo{}, err
	}
	if n2 != n {
		return headerInfo{}, chemfiles.NewFormatError("DCD header record markers disagree (%d vs %d)", n, n2)
	}
	return h, nil
}

// readTitle decodes the second ("title") record into its concatenated,
// trimmed lines joined by newlines.
func readTitle(bf *fileio.BinaryFile, markerWidth int) (string, error) {
	n, err := readMarker(bf, markerWidth)
	if err != nil {
		return "", err
	}

	nLines, err := bf.ReadI32()
	if err != nil {
		return "", err
	}

	raw, err := bf.ReadChar(int(n) - 4)
	if err != nil {
		return "", err
	}

	n2, err := readMarker(bf, markerWidth)
	if err != nil {
		return "", err
	}
	if n2 != n {
		return "", chemfiles.NewFormatError("DCD title record markers disagree")
	}

	var lines []string
	for i := 0; i < int(nLines) && (i+1)*80 <= len(raw); i++ {
		line := string(raw[i*80 : (i+1)*80])
		line = strings.TrimRight(line, "\x00 ")
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// writeTitle encodes title (split on newlines, each line padded/truncated
// to 80 bytes) as the second record.
func writeTitle(bf *fileio.BinaryFile, markerWidth int, title string) error {
	lines := strings.Split(title, "\n")
	if title == "" {
		lines = nil
	}

	payload := make([]byte, 0, 4+80*len(lines))
	nLines := int32(len(lines))
	var hdr [4]byte
	bf.Endian().ByteOrder().PutUint32(hdr[:], uint32(nLines))
	payload = append(payload, hdr[:]...)
	for _, line := range lines {
		b := make([]byte, 80)
		copy(b, line)
		payload = append(payload, b...)
	}

	if err := writeMarker(bf, markerWidth, int64(len(payload))); err != nil {
		return err
	}
	if err := bf.WriteChar(payload); err != nil {
		return err
	}
	return writeMarker(bf, markerWidth, int64(len(payload)))
}

// detectHeader peeks the first 12 bytes of path to recover the byte order
// and Fortran record-marker width, per the four unambiguous prefixes a DCD
// file can start with.
func detectHeader(path string) (fileio.Endian, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, chemfiles.WrapFileError(err, "cannot open %q", path)
	}
	defer f.Close()

	buf := make([]byte, 12)
	n, err := f.Read(buf)
	if err != nil || n < 12 {
		return 0, 0, chemfiles.NewFormatError("%q is too short to be a DCD file", path)
	}

	isCORD := func(b []byte) bool { return b[0] == 'C' && b[1] == 'O' && b[2] == 'R' && b[3] == 'D' }

	switch {
	case buf[0] == 0x54 && buf[1] == 0 && buf[2] == 0 && buf[3] == 0 && isCORD(buf[4:8]):
		return fileio.LittleEndian, recordMarkerWidth32, nil
	case buf[0] == 0 && buf[1] == 0 && buf[2] == 0 && buf[3] == 0x54 && isCORD(buf[4:8]):
		return fileio.BigEndian, recordMarkerWidth32, nil
	case buf[0] == 0x54 && buf[1] == 0 && buf[2] == 0 && buf[3] == 0 && buf[4] == 0 && buf[5] == 0 && buf[6] == 0 && buf[7] == 0 && isCORD(buf[8:12]):
		return fileio.LittleEndian, recordMarkerWidth64, nil
	case buf[0] == 0 && buf[1] == 0 && buf[2] == 0 && buf[3] == 0 && buf[4] == 0 && buf[5] == 0 && buf[6] == 0 && buf[7] == 0x54 && isCORD(buf[8:12]):
		return fileio.BigEndian, recordMarkerWidth64, nil
	default:
		return 0, 0, chemfiles.NewFormatError("%q does not start with a recognised DCD header", path)
	}
}
