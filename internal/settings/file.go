package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/regenrek/winrestore/internal/atomicfile"
	"github.com/regenrek/winrestore/internal/userpath"
)

const quarantineDirName = "quarantine"

// File stores all keys in one JSON object on disk. Every write replaces the
// file atomically. An unreadable file is moved to a quarantine directory next
// to it and treated as empty.
type File struct {
	path string

	mu     sync.Mutex
	closed bool
}

// OpenFile returns a file-backed store at path. The parent directory is
// created on first write.
func OpenFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("settings: file path is required")
	}
	return &File{path: filepath.Clean(userpath.ExpandUser(path))}, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read(ctx)
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read(ctx)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *File) read(ctx context.Context) (map[string]string, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", f.path, err)
	}
	values := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		f.quarantine()
		return map[string]string{}, nil
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	if err := atomicfile.SaveJSON(f.path, values, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", f.path, err)
	}
	return nil
}

func (f *File) quarantine() {
	dir := filepath.Join(filepath.Dir(f.path), quarantineDirName)
	_ = os.MkdirAll(dir, 0o700)
	now := time.Now().UTC().Format("20060102-150405")
	_ = os.Rename(f.path, filepath.Join(dir, filepath.Base(f.path)+"-"+now))
}
