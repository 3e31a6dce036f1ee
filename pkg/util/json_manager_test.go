package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJSONManagerRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	jm := NewJSONManager(path)

	in := map[string]int{"a": 1, "b": 2}
	if err := jm.Save(in); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	var out map[string]int
	if err := jm.Load(&out); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("Load = %v", out)
	}
}

func TestJSONManagerMissingFile(t *testing.T) {
	t.Parallel()

	jm := NewJSONManager(filepath.Join(t.TempDir(), "absent.json"))
	out := map[string]int{"preexisting": 1}
	if err := jm.Load(&out); err != nil {
		t.Fatalf("Load of missing file returned error: %v", err)
	}
	if out["preexisting"] != 1 {
		t.Fatal("Load of missing file must leave the target untouched")
	}
}

func TestJSONManagerMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"a":`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var out map[string]int
	if err := NewJSONManager(path).Load(&out); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
