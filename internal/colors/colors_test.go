package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var rgbaPattern = regexp.MustCompile(`^rgba\((\d{1,3}),(\d{1,3}),(\d{1,3}),(0\.\d|1\.0)\)$`)

func seq(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

func readColors(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return m
}

func TestColorAssignsOnceAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	s := Open(path)
	s.float = seq(0.5, 0.1, 0.99, 0.26)

	first := s.Color("go")
	if first != "rgba(127,25,252,0.3)" {
		t.Errorf("Color(go) = %q, want rgba(127,25,252,0.3)", first)
	}
	if again := s.Color("go"); again != first {
		t.Errorf("second Color(go) = %q, want %q", again, first)
	}

	if got := readColors(t, path)["go"]; got != first {
		t.Errorf("persisted go = %q, want %q", got, first)
	}

	// A fresh store sees the same assignment.
	if got := Open(path).Color("go"); got != first {
		t.Errorf("reopened Color(go) = %q, want %q", got, first)
	}
}

func TestColorFormat(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "colors.json"))
	for _, key := range []string{"go", "rust", "project_demo", "python", "c"} {
		c := s.Color(key)
		if !rgbaPattern.MatchString(c) {
			t.Errorf("Color(%q) = %q, does not match rgba pattern", key, c)
		}
	}
	if s.Len() != 5 {
		t.Errorf("Len = %d, want 5", s.Len())
	}
}

func TestColorAlphaRoundsUp(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "colors.json"))
	s.float = seq(0, 0, 0, 0.97)
	if got := s.Color("k"); got != "rgba(0,0,0,1.0)" {
		t.Errorf("Color = %q, want rgba(0,0,0,1.0)", got)
	}
}

func TestOpenMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	s := Open(path)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 for malformed file", s.Len())
	}
}

func TestOpenKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	os.WriteFile(path, []byte(`{"go":"rgba(1,2,3,0.4)"}`), 0o644)

	s := Open(path)
	if got := s.Color("go"); got != "rgba(1,2,3,0.4)" {
		t.Errorf("Color(go) = %q, want stored value", got)
	}
}

func TestColorSaveFailureStillReturns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "colors.json")
	s := Open(path)

	c := s.Color("go")
	if c == "" {
		t.Fatal("Color returned empty string on save failure")
	}
	if s.Color("go") != c {
		t.Error("in-memory assignment lost after save failure")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.json")
	if err := Init(path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{}\n" {
		t.Errorf("content = %q, want {}\\n", data)
	}

	os.WriteFile(path, []byte(`{"go":"x"}`), 0o644)
	if err := Init(path); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if readColors(t, path)["go"] != "x" {
		t.Error("Init overwrote existing colors")
	}
}
