package fileio

// OpenMode mirrors chemfiles.OpenMode; fileio cannot import the root
// package (which imports fileio), so it defines its own equivalent and
// callers translate across the boundary.
type OpenMode int

const (
	ModeRead OpenMode = iota
	ModeWrite
	ModeAppend
)
