// Package config implements the TOML-backed, process-wide configuration
// collaborator: atomic-type renaming and per-type atomic data overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// AtomOverride holds the optional per-type overrides a [atoms] TOML table
// entry can specify. A nil field means "not specified"; callers should
// only apply the fields that are non-nil.
type AtomOverride struct {
	FullName       *string  `toml:"full_name"`
	Mass           *float64 `toml:"mass"`
	Charge         *float64 `toml:"charge"`
	VdwRadius      *float64 `toml:"vdw_radius"`
	CovalentRadius *float64 `toml:"covalent_radius"`
}

type document struct {
	Types map[string]string      `toml:"types"`
	Atoms map[string]AtomOverride `toml:"atoms"`
}

var (
	mu       sync.RWMutex
	types    = map[string]string{}
	overrides = map[string]AtomOverride{}
)

// AddConfiguration parses the TOML document at path and merges its
// [types]/[atoms] tables into the process-wide configuration, in read
// order (later keys win over earlier ones on conflict).
func AddConfiguration(path string) error {
	var doc document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return WrapConfigurationError(err, "cannot parse configuration file %q", path)
	}

	mu.Lock()
	defer mu.Unlock()
	for k, v := range doc.Types {
		types[k] = v
	}
	for k, v := range doc.Atoms {
		overrides[k] = v
	}
	return nil
}

// ConfigurationError is returned, wrapped, for a missing or invalid
// explicitly requested configuration file.
type ConfigurationError struct {
	msg   string
	cause error
}

func (e *ConfigurationError) Error() string {
	if e.cause != nil {
		return "configuration error: " + e.msg + ": " + e.cause.Error()
	}
	return "configuration error: " + e.msg
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

// WrapConfigurationError builds a *ConfigurationError wrapping cause.
func WrapConfigurationError(cause error, format string, args ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...), cause: cause}
}

// Discover walks from the current working directory up through every
// ancestor, loading the first ".chemfiles.toml" or "chemfiles.toml" found
// in each directory along the way (closer-to-root files are loaded first,
// so a project-local file can override a parent's). It is not an error for
// no configuration file to exist anywhere on the path.
func Discover() error {
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "config: cannot get working directory")
	}

	var found []string
	dir := cwd
	for {
		for _, name := range []string{".chemfiles.toml", "chemfiles.toml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				found = append(found, candidate)
				break
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i := len(found) - 1; i >= 0; i-- {
		if err := AddConfiguration(found[i]); err != nil {
			return err
		}
	}
	return nil
}

// Rename returns the configured replacement for atomType, or atomType
// itself if no [types] entry matches.
func Rename(atomType string) string {
	mu.RLock()
	defer mu.RUnlock()
	if renamed, ok := types[atomType]; ok {
		return renamed
	}
	return atomType
}

// Override returns the [atoms] entry configured for atomType, if any.
func Override(atomType string) (AtomOverride, bool) {
	mu.RLock()
	defer mu.RUnlock()
	o, ok := overrides[atomType]
	return o, ok
}

// Reset clears all loaded configuration. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	types = map[string]string{}
	overrides = map[string]AtomOverride{}
}
