package netcdf

import (
	"github.com/chemfiles/go-chemfiles"
	"github.com/chemfiles/go-chemfiles/fileio"
)

const (
	magic           = "CDF"
	version64BitOff = 2

	tagDimension  int32 = 10
	tagVariable   int32 = 11
	tagAttribute  int32 = 12
	tagAbsent     int32 = 0

	nRecordsOffset uint64 = 4 // byte offset of the n_records header slot
)

func readPString(bf *fileio.BinaryFile) (string, error) {
	n, err := bf.ReadI32()
	if err != nil {
		return "", err
	}
	b, err := bf.ReadChar(int(n))
	if err != nil {
		return "", err
	}
	if pad := pad4(int64(n)); pad > 0 {
		if _, err := bf.ReadChar(int(pad)); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func writePString(bf *fileio.BinaryFile, s string) error {
	if err := bf.WriteI32(int32(len(s))); err != nil {
		return err
	}
	if err := bf.WriteChar([]byte(s)); err != nil {
		return err
	}
	if pad := pad4(int64(len(s))); pad > 0 {
		if err := bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func readAttributeList(bf *fileio.BinaryFile) ([]Attribute, error) {
	if _, err := bf.ReadI32(); err != nil { // tag, not validated: ABSENT and NC_ATTRIBUTE both acceptable
		return nil, err
	}
	n, err := bf.ReadI32()
	if err != nil {
		return nil, err
	}

	attrs := make([]Attribute, 0, n)
	for i := int32(0); i < n; i++ {
		name, err := readPString(bf)
		if err != nil {
			return nil, err
		}
		typTag, err := bf.ReadI32()
		if err != nil {
			return nil, err
		}
		typ := DataType(typTag)
		count, err := bf.ReadI32()
		if err != nil {
			return nil, err
		}
		size := int64(count) * int64(typ.ElementSize())
		raw, err := bf.ReadChar(int(size))
		if err != nil {
			return nil, err
		}
		if pad := pad4(size); pad > 0 {
			if _, err := bf.ReadChar(int(pad)); err != nil {
				return nil, err
			}
		}
		attrs = append(attrs, Attribute{Name: name, Type: typ, n: int(count), raw: raw})
	}
	return attrs, nil
}

func writeAttributeList(bf *fileio.BinaryFile, attrs []Attribute) error {
	if len(attrs) == 0 {
		if err := bf.WriteI32(tagAbsent); err != nil {
			return err
		}
		return bf.WriteI32(0)
	}

	if err := bf.WriteI32(tagAttribute); err != nil {
		return err
	}
	if err := bf.WriteI32(int32(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := writePString(bf, a.Name); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(a.Type)); err != nil {
			return err
		}
		if err := bf.WriteI32(int32(a.n)); err != nil {
			return err
		}
		if err := bf.WriteChar(a.raw); err != nil {
			return err
		}
		if pad := pad4(int64(len(a.raw))); pad > 0 {
			if err := bf.WriteChar(make([]byte, pad)); err != nil {
				return err
			}
		}
	}
	return nil
}

func chemError(format string, args ...interface{}) error {
	return chemfiles.NewFormatError(format, args...)
}
