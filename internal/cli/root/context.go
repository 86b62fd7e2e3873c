package root

import (
	"context"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/output"
	"github.com/regenrek/winrestore/internal/cli/spec"
)

// CommandContext wraps a command invocation.
type CommandContext struct {
	Context context.Context
	Args    []string
	Spec    spec.Command
	Cmd     *cli.Command
	Deps    Dependencies
	JSON    bool
	Out     io.Writer
	ErrOut  io.Writer
	Stdin   io.Reader
	// Started feeds duration_ms in JSON envelopes.
	Started time.Time
}

// Name is the command name reported in envelopes.
func (ctx CommandContext) Name() string {
	if ctx.Spec.Name != "" {
		return ctx.Spec.Name
	}
	if ctx.Cmd != nil {
		return ctx.Cmd.Name
	}
	return ""
}

// Reply writes data as a success envelope in JSON mode and runs text
// otherwise.
func (ctx CommandContext) Reply(data any, text func(w io.Writer) error) error {
	if ctx.JSON {
		return output.Write(ctx.Out, output.Success(ctx.meta(), data))
	}
	if text == nil {
		return nil
	}
	return text(ctx.Out)
}

func (ctx CommandContext) meta() output.Meta {
	return output.NewMeta(ctx.Name(), ctx.Deps.Version, ctx.Started)
}

// Duration returns the named duration flag when it was given on the
// command line and fallback otherwise.
func (ctx CommandContext) Duration(name string, fallback time.Duration) time.Duration {
	if ctx.Cmd != nil && ctx.Cmd.IsSet(name) {
		return ctx.Cmd.Duration(name)
	}
	return fallback
}
