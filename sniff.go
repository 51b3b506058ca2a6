package chemfiles

import (
	"strings"

	"github.com/chemfiles/go-chemfiles/fileio"
)

const cifSniffWindow = 1024

var mmcifMarkers = []string{
	"_audit_conform.dict_name",
	"_cell.length_a",
	"_atom_site.type_symbol",
}

var cifMarkers = []string{
	"_symmetry_equiv_pos_as_xyz",
	"_cell_length_a",
	"_atom_site_type_symbol",
}

func toFileioCodec(c Compression) fileio.Codec {
	switch c {
	case CompressionGZ:
		return fileio.CodecGZ
	case CompressionBZ2:
		return fileio.CodecBZ2
	case CompressionXZ:
		return fileio.CodecXZ
	default:
		return fileio.CodecNone
	}
}

// sniffCIF peeks the first ~1KiB of decompressed text at path to
// disambiguate the ".cif" extension between legacy CIF and mmCIF dialects.
func sniffCIF(path string, compression Compression) (string, error) {
	tf, err := fileio.OpenText(path, fileio.ModeRead, toFileioCodec(compression))
	if err != nil {
		return "", WrapFileError(err, "cannot open %q to guess its format", path)
	}
	defer tf.Close()

	window, err := readWindow(tf, cifSniffWindow)
	if err != nil {
		return "", WrapFileError(err, "cannot read %q to guess its format", path)
	}

	for _, marker := range mmcifMarkers {
		if strings.Contains(window, marker) {
			return "mmcif", nil
		}
	}
	for _, marker := range cifMarkers {
		if strings.Contains(window, marker) {
			return "cif", nil
		}
	}
	return "", NewFormatError("cannot disambiguate %q as cif or mmcif", path)
}

func readWindow(tf *fileio.TextFile, n int) (string, error) {
	var sb strings.Builder
	for sb.Len() < n {
		line, err := tf.ReadLine()
		sb.WriteString(line)
		sb.WriteByte('\n')
		if err != nil {
			break
		}
	}
	return sb.String(), nil
}
