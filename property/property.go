// Package property implements the tagged value type and insertion-ordered
// string-keyed map used throughout chemfiles to attach arbitrary metadata to
// atoms, residues, and frames: a small ordered set of string keys, each
// holding one value, built up by repeated Set calls.
package property

import (
	"github.com/pkg/errors"
)

// Kind identifies which variant a Property currently holds.
type Kind int

const (
	Bool Kind = iota
	Float64
	String
	Vector3
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Vector3:
		return "vector3"
	default:
		return "unknown"
	}
}

// Vector3 is a simple 3-component Cartesian vector, used for positions,
// velocities, and vec3-valued properties alike.
type Vector3 [3]float64

// ErrWrongKind is the cause (wrapped with errors.Wrapf) of the error returned
// when a caller asks for a Property's value as the wrong Kind.
var ErrWrongKind = errors.New("property: value is not of the requested kind")

// Property is a tagged sum of {bool, f64, string, vec3}. The zero value
// holds a bool(false); use the New* constructors to build one of a specific
// kind.
type Property struct {
	kind Kind
	b    bool
	f    float64
	s    string
	v    Vector3
}

func NewBool(v bool) Property     { return Property{kind: Bool, b: v} }
func NewFloat64(v float64) Property { return Property{kind: Float64, f: v} }
func NewString(v string) Property { return Property{kind: String, s: v} }
func NewVector3(v Vector3) Property { return Property{kind: Vector3, v: v} }

// Kind reports which variant is stored.
func (p Property) Kind() Kind { return p.kind }

// AsBool returns the stored bool, failing with ErrWrongKind if Kind() != Bool.
func (p Property) AsBool() (bool, error) {
	if p.kind != Bool {
		return false, errors.Wrapf(ErrWrongKind, "got %s, wanted bool", p.kind)
	}
	return p.b, nil
}

// AsFloat64 returns the stored float64, failing with ErrWrongKind otherwise.
func (p Property) AsFloat64() (float64, error) {
	if p.kind != Float64 {
		return 0, errors.Wrapf(ErrWrongKind, "got %s, wanted float64", p.kind)
	}
	return p.f, nil
}

// AsString returns the stored string, failing with ErrWrongKind otherwise.
func (p Property) AsString() (string, error) {
	if p.kind != String {
		return "", errors.Wrapf(ErrWrongKind, "got %s, wanted string", p.kind)
	}
	return p.s, nil
}

// AsVector3 returns the stored vector, failing with ErrWrongKind otherwise.
func (p Property) AsVector3() (Vector3, error) {
	if p.kind != Vector3 {
		return Vector3{}, errors.Wrapf(ErrWrongKind, "got %s, wanted vector3", p.kind)
	}
	return p.v, nil
}

// entry pairs a key with its value and is only used to preserve insertion
// order; Map itself indexes by key for O(1) lookup.
type entry struct {
	key   string
	value Property
}

// Map is an insertion-ordered string-keyed map of Property values. The zero
// value is not usable; construct one with NewMap.
type Map struct {
	index map[string]int
	order []entry
}

// NewMap returns an empty property map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set stores value under name, overwriting any previous value but keeping
// the key's original position in iteration order.
func (m *Map) Set(name string, value Property) {
	if i, ok := m.index[name]; ok {
		m.order[i].value = value
		return
	}
	m.index[name] = len(m.order)
	m.order = append(m.order, entry{name, value})
}

// Get returns the property stored under name, and whether it was present.
func (m *Map) Get(name string) (Property, bool) {
	i, ok := m.index[name]
	if !ok {
		return Property{}, false
	}
	return m.order[i].value, true
}

// Delete removes name from the map, if present.
func (m *Map) Delete(name string) {
	i, ok := m.index[name]
	if !ok {
		return
	}
	m.order = append(m.order[:i], m.order[i+1:]...)
	delete(m.index, name)
	for j := i; j < len(m.order); j++ {
		m.index[m.order[j].key] = j
	}
}

// Len returns the number of entries in the map.
func (m *Map) Len() int { return len(m.order) }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.order))
	for i, e := range m.order {
		keys[i] = e.key
	}
	return keys
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(name string, value Property)) {
	for _, e := range m.order {
		fn(e.key, e.value)
	}
}

// GetAsBool returns the value stored under name as a bool. It returns
// (_, false) both when the key is absent and when it is present with a
// different kind.
func (m *Map) GetAsBool(name string) (bool, bool) {
	p, ok := m.Get(name)
	if !ok || p.kind != Bool {
		return false, false
	}
	return p.b, true
}

func (m *Map) GetAsFloat64(name string) (float64, bool) {
	p, ok := m.Get(name)
	if !ok || p.kind != Float64 {
		return 0, false
	}
	return p.f, true
}

func (m *Map) GetAsString(name string) (string, bool) {
	p, ok := m.Get(name)
	if !ok || p.kind != String {
		return "", false
	}
	return p.s, true
}

func (m *Map) GetAsVector3(name string) (Vector3, bool) {
	p, ok := m.Get(name)
	if !ok || p.kind != Vector3 {
		return Vector3{}, false
	}
	return p.v, true
}

// GetStrict returns the property stored under name, failing with an
// ErrWrongKind-wrapped error when present but of a different kind than
// requested, and a plain "not found" error when absent. Some format
// readers require this stricter contract instead of GetAs*'s silent-none
// behaviour.
func (m *Map) GetStrict(name string, want Kind) (Property, error) {
	p, ok := m.Get(name)
	if !ok {
		return Property{}, errors.Errorf("property: no value named %q", name)
	}
	if p.kind != want {
		return Property{}, errors.Wrapf(ErrWrongKind, "property %q is %s, wanted %s", name, p.kind, want)
	}
	return p, nil
}
