package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chemfiles.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestAddConfigurationTypesAndAtoms(t *testing.T) {
	defer Reset()

	path := writeConfig(t, `
[types]
HC = "H"

[atoms]
[atoms.H]
full_name = "Hydrogen"
mass = 1.008
`)

	if err := AddConfiguration(path); err != nil {
		t.Fatalf("AddConfiguration: %v", err)
	}

	if got := Rename("HC"); got != "H" {
		t.Errorf("Rename(HC) = %q, want H", got)
	}
	if got := Rename("O"); got != "O" {
		t.Errorf("Rename(O) = %q, want O (unchanged)", got)
	}

	o, ok := Override("H")
	if !ok {
		t.Fatal("Override(H) not found")
	}
	if o.FullName == nil || *o.FullName != "Hydrogen" {
		t.Errorf("Override(H).FullName = %v, want Hydrogen", o.FullName)
	}
	if o.Mass == nil || *o.Mass != 1.008 {
		t.Errorf("Override(H).Mass = %v, want 1.008", o.Mass)
	}
}

func TestAddConfigurationLaterWins(t *testing.T) {
	defer Reset()

	first := writeConfig(t, "[types]\nHC = \"H\"\n")
	second := writeConfig(t, "[types]\nHC = \"C\"\n")

	if err := AddConfiguration(first); err != nil {
		t.Fatalf("AddConfiguration(first): %v", err)
	}
	if err := AddConfiguration(second); err != nil {
		t.Fatalf("AddConfiguration(second): %v", err)
	}
	if got := Rename("HC"); got != "C" {
		t.Errorf("Rename(HC) = %q, want C (second file should win)", got)
	}
}

func TestAddConfigurationMissingFileFails(t *testing.T) {
	defer Reset()
	if err := AddConfiguration(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("AddConfiguration on a missing file should fail")
	}
}
