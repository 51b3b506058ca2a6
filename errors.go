// Package chemfiles implements the Trajectory orchestrator, the Format
// registry, and the Frame/Topology/UnitCell data model used to read and
// write molecular trajectory files.
//
// Leaf format packages register themselves by name/extension from an
// init() function, and this package only knows about the Format
// interface, never about any concrete format.
package chemfiles

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// FileError reports an OS-level I/O failure, compression decoder
	// failure, or an unopenable path.
	FileError Kind = iota
	// FormatError reports malformed file contents, an inconsistent header,
	// or an unknown format name/extension.
	FormatError
	// MemoryError reports an allocation failure or a size overflow.
	MemoryError
	// SelectionError is raised by the external selection collaborator.
	SelectionError
	// ConfigurationError reports bad TOML or a missing explicitly requested
	// config file.
	ConfigurationError
	// OutOfBounds reports an atom/step/dimension index past declared
	// bounds.
	OutOfBounds
	// PropertyError reports a property present with the wrong kind, or
	// missing where required.
	PropertyError
	// GenericError is anything else the core itself raises.
	GenericError
)

func (k Kind) String() string {
	switch k {
	case FileError:
		return "file error"
	case FormatError:
		return "format error"
	case MemoryError:
		return "memory error"
	case SelectionError:
		return "selection error"
	case ConfigurationError:
		return "configuration error"
	case OutOfBounds:
		return "out of bounds"
	case PropertyError:
		return "property error"
	default:
		return "error"
	}
}

// Error is a chemfiles error: a Kind plus a formatted message and an
// optional wrapped cause. errors.Cause (github.com/pkg/errors) unwraps to
// the cause.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Cause implements the interface github.com/pkg/errors.Cause looks for.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports the standard library's errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

func NewFileError(format string, args ...interface{}) error {
	return newError(FileError, format, args...)
}

func WrapFileError(cause error, format string, args ...interface{}) error {
	return wrapError(FileError, cause, format, args...)
}

func NewFormatError(format string, args ...interface{}) error {
	return newError(FormatError, format, args...)
}

func WrapFormatError(cause error, format string, args ...interface{}) error {
	return wrapError(FormatError, cause, format, args...)
}

func NewMemoryError(format string, args ...interface{}) error {
	return newError(MemoryError, format, args...)
}

func NewSelectionError(format string, args ...interface{}) error {
	return newError(SelectionError, format, args...)
}

func WrapSelectionError(cause error, format string, args ...interface{}) error {
	return wrapError(SelectionError, cause, format, args...)
}

func NewConfigurationError(format string, args ...interface{}) error {
	return newError(ConfigurationError, format, args...)
}

func WrapConfigurationError(cause error, format string, args ...interface{}) error {
	return wrapError(ConfigurationError, cause, format, args...)
}

func NewOutOfBounds(format string, args ...interface{}) error {
	return newError(OutOfBounds, format, args...)
}

func NewPropertyError(format string, args ...interface{}) error {
	return newError(PropertyError, format, args...)
}

func NewGenericError(format string, args ...interface{}) error {
	return newError(GenericError, format, args...)
}

// KindOf reports the Kind of err if it (or something it wraps) is a
// *Error, and GenericError with ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if stderrors.As(err, &ce) {
		return ce.Kind, true
	}
	return GenericError, false
}
