package root

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/output"
	"github.com/regenrek/winrestore/internal/cli/spec"
	"github.com/regenrek/winrestore/internal/identity"
)

// BuildApp turns the command spec into a cli.Command tree whose actions
// call the handlers in reg.
func BuildApp(doc *spec.Spec, deps Dependencies, reg *Registry) (*cli.Command, error) {
	if doc == nil {
		return nil, errors.New("cli: spec is nil")
	}
	if reg == nil {
		return nil, errors.New("cli: registry is nil")
	}
	if err := reg.bind(doc); err != nil {
		return nil, err
	}
	globals, err := buildFlags(doc.Flags)
	if err != nil {
		return nil, err
	}
	app := &cli.Command{
		Name:      doc.App.Name,
		Usage:     doc.App.Summary,
		Flags:     globals,
		Writer:    deps.Stdout,
		ErrWriter: deps.Stderr,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if !cmd.Bool("version") {
				return ctx, nil
			}
			if deps.Stdout != nil {
				_, _ = fmt.Fprintf(deps.Stdout, "%s %s\n", identity.CLIName, deps.Version)
			}
			return ctx, cli.Exit("", 0)
		},
	}
	for _, cmdSpec := range doc.Commands {
		cmd, err := buildCommand(cmdSpec, deps, reg)
		if err != nil {
			return nil, err
		}
		app.Commands = append(app.Commands, cmd)
	}
	return app, nil
}

func buildCommand(cmdSpec spec.Command, deps Dependencies, reg *Registry) (*cli.Command, error) {
	flags, err := buildFlags(cmdSpec.AllFlags())
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", cmdSpec.Name, err)
	}
	handler, _ := reg.handler(cmdSpec.Name)
	cmd := &cli.Command{
		Name:        cmdSpec.Name,
		Aliases:     cmdSpec.Aliases,
		Usage:       cmdSpec.Summary,
		Description: strings.TrimSpace(cmdSpec.Description),
		Flags:       flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return invoke(ctx, c, cmdSpec, deps, handler)
		},
	}
	if rest := cmdSpec.Rest; rest != nil {
		cmd.ArgsUsage = "[" + strings.ToUpper(rest.Name) + "...]"
		cmd.Arguments = []cli.Argument{&cli.StringArgs{Name: rest.Name, Min: 0, Max: -1}}
	}
	return cmd, nil
}

// invoke checks flag exclusions, asks for confirmation and runs the
// handler. In JSON mode a handler error becomes a failure envelope and
// exit status 1.
func invoke(ctx context.Context, c *cli.Command, cmdSpec spec.Command, deps Dependencies, handler Handler) error {
	if err := checkExcludes(cmdSpec, c); err != nil {
		return err
	}
	cc := CommandContext{
		Context: ctx,
		Args:    c.Args().Slice(),
		Spec:    cmdSpec,
		Cmd:     c,
		Deps:    deps,
		JSON:    cmdSpec.JSON && c.Bool(spec.FlagJSON),
		Out:     deps.Stdout,
		ErrOut:  deps.Stderr,
		Stdin:   deps.Stdin,
		Started: time.Now(),
	}
	if err := confirm(cc); err != nil {
		return err
	}
	err := handler(cc)
	if err == nil || !cc.JSON {
		return err
	}
	_ = output.Write(cc.Out, output.Failure(cc.meta(), errorCode(err), err.Error()))
	return cli.Exit("", 1)
}
