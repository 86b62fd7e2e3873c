// Package settings is a small string key/value store backing the saved
// window state.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("settings: store is closed")

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Store persists string values by key.
type Store interface {
	// Get reports ok=false when key has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects a backend.
type Options struct {
	Backend string
	// Path is the JSON file or sqlite database. Ignored by the memory backend.
	Path string
}

// Open returns a Store for opts.Backend. An empty backend means file.
func Open(opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	switch backend {
	case "", BackendFile:
		return OpenFile(opts.Path)
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("settings: unknown backend %q", opts.Backend)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("settings: key is required")
	}
	return nil
}
