package netcdf

import (
	"github.com/chemfiles/go-chemfiles/fileio"
)

// Writer appends records to a file laid out by Builder.Finalize.
type Writer struct {
	bf           *fileio.BinaryFile
	vars         []Variable
	recordStride int64
	nRecords     int64

	// sealedFloor is the record count already committed to disk before this
	// Writer existed (nonzero when resuming an append); steps below it must
	// never be back-filled, since doing so would stomp real data from an
	// earlier writing session that this Writer has no "written" record of.
	sealedFloor int64

	// written tracks, per variable name, which record steps have been
	// explicitly written via the Write* methods, so AddRecord/Close know which
	// steps still need a fill-value back-fill.
	written map[string]map[int]bool
}

// Variable returns a pointer to the named variable's parsed metadata, as
// assigned by Finalize.
func (w *Writer) Variable(name string) (*Variable, bool) {
	for i := range w.vars {
		if w.vars[i].Name == name {
			return &w.vars[i], true
		}
	}
	return nil, false
}

func (w *Writer) entryOffset(v *Variable, step int) (int64, error) {
	if v.isRecord {
		return v.offset + int64(step)*w.recordStride, nil
	}
	if step != 0 {
		return 0, chemError("variable %q is not a record variable, step must be 0", v.Name)
	}
	return v.offset, nil
}

func (w *Writer) markWritten(name string, step int) {
	if w.written[name] == nil {
		w.written[name] = make(map[int]bool)
	}
	w.written[name][step] = true
}

func (w *Writer) isWritten(name string, step int) bool {
	return w.written[name] != nil && w.written[name][step]
}

// WriteFloat32 writes values as variable v's entry at step.
func (w *Writer) WriteFloat32(v *Variable, step int, values []float32) error {
	if v.Type != Float {
		return chemError("variable %q is %s, not float", v.Name, v.Type)
	}
	if len(values) != v.elementCount {
		return chemError("variable %q expects %d values, got %d", v.Name, v.elementCount, len(values))
	}
	off, err := w.entryOffset(v, step)
	if err != nil {
		return err
	}
	w.bf.Seek(uint64(off))
	if err := w.bf.WriteF32Array(values); err != nil {
		return err
	}
	if pad := pad4(v.entrySize); pad > 0 {
		if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	w.markWritten(v.Name, step)
	return nil
}

// WriteFloat64 writes values as variable v's entry at step.
func (w *Writer) WriteFloat64(v *Variable, step int, values []float64) error {
	if v.Type != Double {
		return chemError("variable %q is %s, not double", v.Name, v.Type)
	}
	if len(values) != v.elementCount {
		return chemError("variable %q expects %d values, got %d", v.Name, v.elementCount, len(values))
	}
	off, err := w.entryOffset(v, step)
	if err != nil {
		return err
	}
	w.bf.Seek(uint64(off))
	if err := w.bf.WriteF64Array(values); err != nil {
		return err
	}
	if pad := pad4(v.entrySize); pad > 0 {
		if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	w.markWritten(v.Name, step)
	return nil
}

// WriteInt16 writes values as variable v's entry at step.
func (w *Writer) WriteInt16(v *Variable, step int, values []int16) error {
	if v.Type != Short {
		return chemError("variable %q is %s, not short", v.Name, v.Type)
	}
	if len(values) != v.elementCount {
		return chemError("variable %q expects %d values, got %d", v.Name, v.elementCount, len(values))
	}
	off, err := w.entryOffset(v, step)
	if err != nil {
		return err
	}
	w.bf.Seek(uint64(off))
	for _, val := range values {
		if err := w.bf.WriteI16(val); err != nil {
			return err
		}
	}
	if pad := pad4(v.entrySize); pad > 0 {
		if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	w.markWritten(v.Name, step)
	return nil
}

// WriteChar writes raw bytes as variable v's entry at step; v.Type must be
// Char or Byte.
func (w *Writer) WriteChar(v *Variable, step int, values []byte) error {
	if v.Type != Char && v.Type != Byte {
		return chemError("variable %q is %s, not char/byte", v.Name, v.Type)
	}
	if len(values) != v.elementCount {
		return chemError("variable %q expects %d values, got %d", v.Name, v.elementCount, len(values))
	}
	off, err := w.entryOffset(v, step)
	if err != nil {
		return err
	}
	w.bf.Seek(uint64(off))
	if err := w.bf.WriteChar(values); err != nil {
		return err
	}
	if pad := pad4(v.entrySize); pad > 0 {
		if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	w.markWritten(v.Name, step)
	return nil
}

// WriteInt32 writes values as variable v's entry at step.
func (w *Writer) WriteInt32(v *Variable, step int, values []int32) error {
	if v.Type != Int {
		return chemError("variable %q is %s, not int", v.Name, v.Type)
	}
	if len(values) != v.elementCount {
		return chemError("variable %q expects %d values, got %d", v.Name, v.elementCount, len(values))
	}
	off, err := w.entryOffset(v, step)
	if err != nil {
		return err
	}
	w.bf.Seek(uint64(off))
	if err := w.bf.WriteI32Array(values); err != nil {
		return err
	}
	if pad := pad4(v.entrySize); pad > 0 {
		if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
			return err
		}
	}
	w.markWritten(v.Name, step)
	return nil
}

// backfillStep writes every record variable's fill value at step, unless it
// was already explicitly written there.
func (w *Writer) backfillStep(step int) error {
	for i := range w.vars {
		v := &w.vars[i]
		if !v.isRecord || w.isWritten(v.Name, step) {
			continue
		}
		off, err := w.entryOffset(v, step)
		if err != nil {
			return err
		}
		w.bf.Seek(uint64(off))
		if err := w.bf.WriteChar(fillBytes(v.Type, v.elementCount)); err != nil {
			return err
		}
		if pad := pad4(v.entrySize); pad > 0 {
			if err := w.bf.WriteChar(make([]byte, pad)); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddRecord grows the record dimension by one entry. Any record variable
// left unwritten at the step this call supersedes is back-filled first.
func (w *Writer) AddRecord() error {
	if w.nRecords > w.sealedFloor {
		if err := w.backfillStep(int(w.nRecords - 1)); err != nil {
			return err
		}
	}
	w.nRecords++
	return w.patchNRecords()
}

func (w *Writer) patchNRecords() error {
	cursor := w.bf.Tell()
	w.bf.Seek(nRecordsOffset)
	if err := w.bf.WriteI32(int32(w.nRecords)); err != nil {
		return err
	}
	w.bf.Seek(cursor)
	return nil
}

// NRecords returns the number of records added so far.
func (w *Writer) NRecords() int64 { return w.nRecords }

// Close back-fills the final step, if any, and releases the underlying
// file.
func (w *Writer) Close() error {
	if w.nRecords > w.sealedFloor {
		if err := w.backfillStep(int(w.nRecords - 1)); err != nil {
			w.bf.Close()
			return err
		}
	}
	return w.bf.Close()
}
