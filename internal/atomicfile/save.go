package atomicfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Save writes data next to path and renames it into place, so readers see
// either the old or the new content.
func Save(path string, data []byte, perm os.FileMode) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("atomicfile: path is required")
	}
	if perm == 0 {
		perm = 0o600
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("atomicfile: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp: %w", err)
	}
	name := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(name)
		}
	}()
	if err := writeTemp(tmp, data, perm); err != nil {
		return err
	}
	if err := replace(name, path); err != nil {
		return err
	}
	committed = true
	_ = os.Chmod(path, perm)
	return nil
}

// SaveJSON encodes v as indented JSON and writes it with Save.
func SaveJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("atomicfile: encode json: %w", err)
	}
	data = append(data, '\n')
	return Save(path, data, perm)
}

func writeTemp(tmp *os.File, data []byte, perm os.FileMode) error {
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("atomicfile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomicfile: close temp: %w", err)
	}
	return nil
}

func replace(from, to string) error {
	err := os.Rename(from, to)
	if err == nil {
		return nil
	}
	// Some filesystems refuse to rename over an existing file.
	if removeErr := os.Remove(to); removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("atomicfile: replace file: %w", err)
	}
	if retryErr := os.Rename(from, to); retryErr != nil {
		return fmt.Errorf("atomicfile: replace file: %w", retryErr)
	}
	return nil
}
