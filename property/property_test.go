package property

import (
	"testing"

	"github.com/pkg/errors"
)

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("charge", NewFloat64(-1))
	m.Set("name", NewString("CA"))
	m.Set("flag", NewBool(true))

	want := []string{"charge", "name", "flag"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMapSetOverwritesKeepsPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", NewFloat64(1))
	m.Set("b", NewFloat64(2))
	m.Set("a", NewFloat64(3))

	if got := m.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", got)
	}
	v, ok := m.GetAsFloat64("a")
	if !ok || v != 3 {
		t.Errorf("GetAsFloat64(a) = %g, %v, want 3, true", v, ok)
	}
}

func TestMapDeleteShiftsIndices(t *testing.T) {
	m := NewMap()
	m.Set("a", NewBool(true))
	m.Set("b", NewBool(false))
	m.Set("c", NewBool(true))

	m.Delete("b")
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if _, ok := m.Get("b"); ok {
		t.Error("Get(b) found after Delete(b)")
	}
	v, ok := m.GetAsBool("c")
	if !ok || !v {
		t.Errorf("GetAsBool(c) = %v, %v, want true, true", v, ok)
	}
}

func TestGetAsWrongKindReturnsFalse(t *testing.T) {
	m := NewMap()
	m.Set("x", NewString("hello"))
	if _, ok := m.GetAsFloat64("x"); ok {
		t.Error("GetAsFloat64 on a string property should report false")
	}
}

func TestGetStrictWrongKindWrapsErrWrongKind(t *testing.T) {
	m := NewMap()
	m.Set("x", NewString("hello"))
	_, err := m.GetStrict("x", Float64)
	if err == nil {
		t.Fatal("GetStrict with mismatched kind should fail")
	}
	if errors.Cause(err) != ErrWrongKind {
		t.Errorf("GetStrict error %v does not wrap ErrWrongKind", err)
	}
}

func TestGetStrictMissingFails(t *testing.T) {
	m := NewMap()
	if _, err := m.GetStrict("missing", Bool); err == nil {
		t.Fatal("GetStrict on a missing key should fail")
	}
}
