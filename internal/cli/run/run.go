package run

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/hook"
	"github.com/regenrek/winrestore/internal/lifecycle"
	"github.com/regenrek/winrestore/internal/restart"
	"github.com/regenrek/winrestore/internal/winstate"
)

// Register registers the run handler.
func Register(reg *root.Registry) {
	reg.Register("run", runRun)
}

// newCommand builds the restart command; tests swap it to stub exec.
var newCommand = func(argv []string, line string) (*restart.Command, error) {
	if len(argv) > 0 {
		return restart.New(argv)
	}
	return restart.Parse(line)
}

func runRun(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	cmd, err := newCommand(commandArgs(ctx), svc.Config.Restart.Command)
	if errors.Is(err, restart.ErrNoCommand) {
		return fmt.Errorf("no restart command: pass one after -- or set restart.command: %w", err)
	}
	if err != nil {
		return err
	}
	cmd.WithIO(ctx.Stdin, ctx.Out, ctx.ErrOut)
	cmd.WithLogger(svc.Logger)

	handlers := hook.NewMap[lifecycle.RestartHandler]()
	handlers.Install(lifecycle.RestartHook, cmd.Handler())

	// The instance being replaced saves and restarts.
	before, err := lifecycle.New(lifecycle.Options{
		Store:       svc.Store,
		Lister:      svc.Display,
		Handlers:    handlers,
		SkipRestore: true,
		Logger:      svc.Logger,
	})
	if err != nil {
		return err
	}
	if err := before.Enable(ctx.Context); err != nil {
		return err
	}
	res, restartErr := before.Restart(ctx.Context, lifecycle.RestartParams{Reason: "run"})
	_ = before.Disable()
	if restartErr != nil {
		return restartErr
	}

	if !ctx.Cmd.Bool("no-restore") {
		delay := ctx.Duration("delay", svc.Config.Restore.Delay.Std())
		if err := restoreAfter(ctx, svc, handlers, delay); err != nil {
			return err
		}
	}
	if res.ExitCode != 0 {
		return cli.Exit("", res.ExitCode)
	}
	return nil
}

// restoreAfter plays the freshly started instance: enable, wait for the
// deferred restore, disable.
func restoreAfter(ctx root.CommandContext, svc *root.Services, handlers hook.Table[lifecycle.RestartHandler], delay time.Duration) error {
	type outcome struct {
		report winstate.Report
		err    error
	}
	done := make(chan outcome, 1)
	after, err := lifecycle.New(lifecycle.Options{
		Store:        svc.Store,
		Lister:       svc.Display,
		Handlers:     handlers,
		RestoreDelay: delay,
		Logger:       svc.Logger,
		OnRestore: func(r winstate.Report, err error) {
			done <- outcome{report: r, err: err}
		},
	})
	if err != nil {
		return err
	}
	if err := after.Enable(ctx.Context); err != nil {
		return err
	}
	defer func() { _ = after.Disable() }()
	select {
	case <-ctx.Context.Done():
		return ctx.Context.Err()
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		svc.Logger.Info("run: restored",
			slog.Int("matched", res.report.Matched),
			slog.Int("records", res.report.Records))
		return nil
	}
}

func commandArgs(ctx root.CommandContext) []string {
	if args := ctx.Cmd.StringArgs("command"); len(args) > 0 {
		return args
	}
	return ctx.Args
}
