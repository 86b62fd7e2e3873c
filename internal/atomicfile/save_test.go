package atomicfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	if err := Save(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("content = %q, want %q", string(got), "hello")
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("perm = %o, want 0600", info.Mode().Perm())
		}
	}
}

func TestSaveOverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state")
	if err := Save(path, []byte("first"), 0); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := Save(path, []byte("second"), 0); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q", string(got))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %d entries", len(entries))
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("  ", []byte("x"), 0o600); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := SaveJSON(path, map[string]string{"saved-state": "[]"}, 0o600); err != nil {
		t.Fatalf("SaveJSON() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["saved-state"] != "[]" {
		t.Fatalf("got %#v", got)
	}
}
