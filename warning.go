package chemfiles

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/chemfiles/go-chemfiles/cell"
)

func init() {
	cell.SetWarnFunc(Warnf)
}

var (
	warningMu sync.RWMutex
	warningFn = log.New(os.Stderr, "chemfiles: ", 0).Println
)

// SetWarningCallback installs fn as the process-wide destination for
// non-fatal diagnostics (title-record oddities, frame-count mismatches,
// cell-orientation loss on SetLengths, …). The default prints to stderr
// with a "chemfiles: " prefix.
func SetWarningCallback(fn func(string)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	warningFn = fn
}

func warn(format string, args ...interface{}) {
	warningMu.RLock()
	fn := warningFn
	warningMu.RUnlock()
	fn(fmt.Sprintf(format, args...))
}

// Warnf lets leaf format packages report a non-fatal diagnostic through the
// same process-wide callback warn uses internally.
func Warnf(format string, args ...interface{}) {
	warn(format, args...)
}
