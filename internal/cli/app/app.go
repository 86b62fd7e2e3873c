// Package app wires every command handler to the embedded command spec.
package app

import (
	"github.com/regenrek/winrestore/internal/cli/daemon"
	"github.com/regenrek/winrestore/internal/cli/initcfg"
	"github.com/regenrek/winrestore/internal/cli/resolve"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/cli/run"
	"github.com/regenrek/winrestore/internal/cli/spec"
	"github.com/regenrek/winrestore/internal/cli/state"
	"github.com/regenrek/winrestore/internal/cli/version"
)

// NewRunner builds the winrestore command line. It fails when a command in
// the spec has no handler or a handler has no command.
func NewRunner(deps root.Dependencies) (*root.Runner, error) {
	doc, err := spec.Default()
	if err != nil {
		return nil, err
	}
	reg := root.NewRegistry()
	for _, register := range []func(*root.Registry){
		state.Register,
		resolve.Register,
		run.Register,
		daemon.Register,
		initcfg.Register,
		version.Register,
	} {
		register(reg)
	}
	return root.NewRunner(doc, deps, reg)
}
