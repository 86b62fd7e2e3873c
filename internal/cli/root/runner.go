package root

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/spec"
	"github.com/regenrek/winrestore/internal/identity"
)

// Runner runs the command tree built from a spec.
type Runner struct {
	specDoc *spec.Spec
	app     *cli.Command
}

// NewRunner builds the command tree for specDoc.
func NewRunner(specDoc *spec.Spec, deps Dependencies, reg *Registry) (*Runner, error) {
	app, err := BuildApp(specDoc, deps, reg)
	if err != nil {
		return nil, err
	}
	return &Runner{specDoc: specDoc, app: app}, nil
}

// Run parses args, with args[0] the binary, and runs the selected command.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if r == nil || r.app == nil {
		return errors.New("runner is not initialized")
	}
	r.app.Name = identity.ResolveBinaryName(args)
	return r.app.Run(ctx, r.withDefault(args))
}

// withDefault appends the default command when args hold only global flags.
// Help and version requests are left alone.
func (r *Runner) withDefault(args []string) []string {
	name := strings.TrimSpace(r.specDoc.App.Default)
	if name == "" || len(args) == 0 {
		return args
	}
	takesValue := map[string]bool{}
	stop := map[string]bool{"-h": true, "--help": true}
	for _, f := range r.specDoc.Flags {
		names := []string{"--" + f.Name}
		if f.Short != "" {
			names = append(names, "-"+f.Short)
		}
		for _, n := range names {
			switch {
			case f.Name == "version":
				stop[n] = true
			case f.Kind != spec.KindBool:
				takesValue[n] = true
			}
		}
	}
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case !strings.HasPrefix(arg, "-"), stop[arg]:
			return args
		case takesValue[arg]:
			i++
		}
	}
	return append(slices.Clone(args), name)
}
