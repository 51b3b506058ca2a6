package chemfiles

import (
	"github.com/chemfiles/go-chemfiles/cell"
	"github.com/chemfiles/go-chemfiles/config"
	"github.com/chemfiles/go-chemfiles/property"
	"github.com/chemfiles/go-chemfiles/topology"
)

// Trajectory is a cursor over a sequence of Frames backed by one Format
// implementation. It owns the format's lifecycle and applies any override
// cell/topology and type-renaming configured on it.
type Trajectory struct {
	path   string
	mode   OpenMode
	format Format

	step   uint64
	nSteps uint64

	overrideCell     *cell.UnitCell
	overrideTopology *topology.Topology

	memory *MemoryBuffer
	closed bool
}

// Open resolves hint (or guesses it from path's extension when hint is
// empty) against the format registry and opens path in mode.
func Open(path string, mode OpenMode, hint string) (*Trajectory, error) {
	if hint == "" {
		guessed, err := GuessFormat(path, mode)
		if err != nil {
			return nil, err
		}
		hint = guessed
	}

	name, compression, err := ParseFormatHint(hint)
	if err != nil {
		return nil, err
	}

	rf, err := lookupByName(name)
	if err != nil {
		return nil, err
	}

	format, err := rf.Creator(path, mode, compression)
	if err != nil {
		return nil, WrapFileError(err, "cannot open %q", path)
	}

	t := &Trajectory{path: path, mode: mode, format: format}
	if mode == ModeRead || mode == ModeAppend {
		n, err := format.NSteps()
		if err != nil {
			format.Close()
			return nil, err
		}
		t.nSteps = n
		if mode == ModeAppend {
			t.step = n
		}
	}
	return t, nil
}

// MemoryReader opens an in-memory trajectory for reading. hint must name a
// registered format with memory support.
func MemoryReader(data []byte, hint string) (*Trajectory, error) {
	return openMemory(data, ModeRead, hint)
}

// MemoryWriter opens an in-memory trajectory for writing. hint must name a
// registered format with memory support.
func MemoryWriter(hint string) (*Trajectory, error) {
	return openMemory(nil, ModeWrite, hint)
}

func openMemory(initial []byte, mode OpenMode, hint string) (*Trajectory, error) {
	name, compression, err := ParseFormatHint(hint)
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone {
		return nil, NewFormatError("memory-backed trajectories do not support compression")
	}

	rf, err := lookupByName(name)
	if err != nil {
		return nil, err
	}
	if rf.MemoryCreator == nil {
		return nil, NewFormatError("format %q does not support memory I/O", name)
	}

	format, snapshot, err := rf.MemoryCreator(mode, initial)
	if err != nil {
		return nil, err
	}

	t := &Trajectory{mode: mode, format: format, memory: NewMemoryBuffer(snapshot)}
	if mode == ModeRead {
		n, err := format.NSteps()
		if err != nil {
			format.Close()
			return nil, err
		}
		t.nSteps = n
	}
	return t, nil
}

// NSteps returns the number of steps available for reading.
func (t *Trajectory) NSteps() uint64 { return t.nSteps }

// SetCell installs c as an override applied to every frame read or written
// from this point on.
func (t *Trajectory) SetCell(c cell.UnitCell) { t.overrideCell = &c }

// SetTopology installs top as an override applied to every frame read or
// written from this point on.
func (t *Trajectory) SetTopology(top *topology.Topology) { t.overrideTopology = top }

// applyReadOverrides implements the read-side override order: a custom
// topology replaces the frame's entirely (and must match its atom count);
// otherwise the frame's own atoms get process-wide type renaming. A custom
// cell always replaces the frame's cell, independent of the topology branch.
func (t *Trajectory) applyReadOverrides(frame *Frame) error {
	if t.overrideTopology != nil {
		if t.overrideTopology.Size() != frame.Topology.Size() {
			return NewFormatError("override topology has %d atoms, frame has %d", t.overrideTopology.Size(), frame.Topology.Size())
		}
		frame.Topology = t.overrideTopology
	} else {
		applyConfiguration(frame)
	}
	if t.overrideCell != nil {
		frame.Cell = *t.overrideCell
	}
	return nil
}

// applyWriteOverrides mirrors applyReadOverrides for the write path: the
// custom topology and cell, when set, replace the frame's own before it
// reaches the format writer.
func (t *Trajectory) applyWriteOverrides(frame *Frame) {
	if t.overrideTopology != nil {
		frame.Topology = t.overrideTopology
	}
	if t.overrideCell != nil {
		frame.Cell = *t.overrideCell
	}
}

// Read decodes the frame at the current step cursor into frame and
// advances the cursor.
func (t *Trajectory) Read(frame *Frame) error {
	if t.mode != ModeRead {
		return NewFileError("trajectory %q is not open for reading", t.path)
	}
	if t.step >= t.nSteps {
		return NewOutOfBounds("step %d is past the last step (%d)", t.step, t.nSteps)
	}

	frame.Step = StepUnset
	if err := t.format.Read(frame); err != nil {
		return err
	}
	if frame.Step == StepUnset {
		frame.Step = t.step
	}
	if err := t.applyReadOverrides(frame); err != nil {
		return err
	}
	t.step++
	return nil
}

// ReadStep decodes the frame at step s into frame without disturbing the
// sequential cursor's next-read position, other than moving it to s+1.
func (t *Trajectory) ReadStep(s uint64, frame *Frame) error {
	if t.mode != ModeRead {
		return NewFileError("trajectory %q is not open for reading", t.path)
	}
	if s >= t.nSteps {
		return NewOutOfBounds("step %d is past the last step (%d)", s, t.nSteps)
	}

	frame.Step = StepUnset
	t.step = s
	if err := t.format.ReadStep(s, frame); err != nil {
		return err
	}
	if frame.Step == StepUnset {
		frame.Step = s
	}
	if err := t.applyReadOverrides(frame); err != nil {
		return err
	}
	t.step = s + 1
	return nil
}

// Write appends frame as the next step. Overrides are applied to a copy so
// the caller's Frame is left untouched.
func (t *Trajectory) Write(frame *Frame) error {
	if t.mode != ModeWrite && t.mode != ModeAppend {
		return NewFileError("trajectory %q is not open for writing", t.path)
	}

	out := frame
	if t.overrideCell != nil || t.overrideTopology != nil {
		clone := *frame
		t.applyWriteOverrides(&clone)
		out = &clone
	}

	if err := t.format.Write(out); err != nil {
		return err
	}
	t.step++
	t.nSteps++
	return nil
}

// MemoryBufferBytes returns the current contents of a memory-backed
// trajectory's buffer. It is an error to call this on a disk-backed one.
func (t *Trajectory) MemoryBufferBytes() ([]byte, error) {
	if t.memory == nil {
		return nil, NewFileError("trajectory %q is not memory-backed", t.path)
	}
	return t.memory.Bytes(), nil
}

// Close releases the underlying format. Close is idempotent.
func (t *Trajectory) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.format.Close()
}

// applyConfiguration replaces every atom's type with its process-wide
// configured rename (identity if none is configured) and then applies any
// [atoms] override registered for the resulting type.
func applyConfiguration(frame *Frame) {
	for i := 0; i < frame.Topology.Size(); i++ {
		atom := frame.Topology.Atom(i)
		atom.Type = config.Rename(atom.Type)

		if o, ok := config.Override(atom.Type); ok {
			if o.FullName != nil {
				atom.Name = *o.FullName
			}
			if o.Mass != nil {
				atom.Mass = *o.Mass
			}
			if o.Charge != nil {
				atom.Charge = *o.Charge
			}
			if o.VdwRadius != nil {
				atom.Properties.Set("vdw_radius", property.NewFloat64(*o.VdwRadius))
			}
			if o.CovalentRadius != nil {
				atom.Properties.Set("covalent_radius", property.NewFloat64(*o.CovalentRadius))
			}
		}
		frame.Topology.SetAtom(i, atom)
	}
}
