package root

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/regenrek/winrestore/internal/cli/spec"
)

// Handler runs one command.
type Handler func(ctx CommandContext) error

// Registry maps command names to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds h to the command called name. A later registration for
// the same name wins.
func (r *Registry) Register(name string, h Handler) {
	if r == nil || name == "" || h == nil {
		return
	}
	r.handlers[name] = h
}

func (r *Registry) handler(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[name]
	return h, ok
}

// bind reports commands without a handler and handlers without a command.
func (r *Registry) bind(doc *spec.Spec) error {
	var errs []error
	declared := make(map[string]bool, len(doc.Commands))
	for _, cmd := range doc.Commands {
		declared[cmd.Name] = true
		if _, ok := r.handlers[cmd.Name]; !ok {
			errs = append(errs, fmt.Errorf("command %s has no handler", cmd.Name))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(r.handlers)) {
		if !declared[name] {
			errs = append(errs, fmt.Errorf("handler %s has no command", name))
		}
	}
	return errors.Join(errs...)
}
