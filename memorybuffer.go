package chemfiles

// MemoryBuffer exposes the backing bytes of a memory-writer Trajectory.
// Formats that support memory I/O hand Trajectory a snapshot function over
// their own growable buffer; MemoryBuffer is a thin read-only view over it.
type MemoryBuffer struct {
	get func() []byte
}

// NewMemoryBuffer wraps a format-owned buffer snapshot function.
func NewMemoryBuffer(snapshot func() []byte) *MemoryBuffer {
	return &MemoryBuffer{get: snapshot}
}

// Bytes returns the buffer's current contents.
func (m *MemoryBuffer) Bytes() []byte {
	if m.get == nil {
		return nil
	}
	return m.get()
}
