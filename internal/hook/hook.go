// Package hook overrides named handlers on a host object and puts the
// originals back on removal.
package hook

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyOverridden is returned when a name already carries an override
// from the same registry.
var ErrAlreadyOverridden = errors.New("hook: handler already overridden")

// Table is a set of named handlers, such as the restart handler of a shell.
type Table[H any] interface {
	Lookup(name string) (H, bool)
	Install(name string, h H)
	Uninstall(name string)
}

// Wrapper builds an override from the original handler. original is the zero
// value and ok is false when nothing was installed.
type Wrapper[H any] func(original H, ok bool) H

type saved[H any] struct {
	handler H
	ok      bool
}

// Registry remembers the original handler for each overridden name.
type Registry[H any] struct {
	table Table[H]

	mu    sync.Mutex
	slots map[string]saved[H]
}

// NewRegistry returns a Registry for table.
func NewRegistry[H any](table Table[H]) *Registry[H] {
	return &Registry[H]{table: table, slots: make(map[string]saved[H])}
}

// Override installs wrap(original) under name.
func (r *Registry[H]) Override(name string, wrap Wrapper[H]) error {
	if wrap == nil {
		return errors.New("hook: wrapper is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOverridden, name)
	}
	original, ok := r.table.Lookup(name)
	r.slots[name] = saved[H]{handler: original, ok: ok}
	r.table.Install(name, wrap(original, ok))
	return nil
}

// Remove reinstalls the original handler, or uninstalls the name when none
// existed. Removing a name that is not overridden is a no-op.
func (r *Registry[H]) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[name]
	if !ok {
		return
	}
	delete(r.slots, name)
	if slot.ok {
		r.table.Install(name, slot.handler)
		return
	}
	r.table.Uninstall(name)
}

// RemoveAll restores every overridden name.
func (r *Registry[H]) RemoveAll() {
	r.mu.Lock()
	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	r.mu.Unlock()
	for _, name := range names {
		r.Remove(name)
	}
}

// Lookup returns the handler currently installed under name.
func (r *Registry[H]) Lookup(name string) (H, bool) {
	return r.table.Lookup(name)
}

// Overridden reports whether name currently carries an override.
func (r *Registry[H]) Overridden(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[name]
	return ok
}

// Map is a concurrency-safe Table backed by a map.
type Map[H any] struct {
	mu       sync.RWMutex
	handlers map[string]H
}

func NewMap[H any]() *Map[H] {
	return &Map[H]{handlers: make(map[string]H)}
}

func (m *Map[H]) Lookup(name string) (H, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[name]
	return h, ok
}

func (m *Map[H]) Install(name string, h H) {
	m.mu.Lock()
	m.handlers[name] = h
	m.mu.Unlock()
}

func (m *Map[H]) Uninstall(name string) {
	m.mu.Lock()
	delete(m.handlers, name)
	m.mu.Unlock()
}
