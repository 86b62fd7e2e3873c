package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/confwatch"
	"github.com/regenrek/winrestore/internal/hook"
	"github.com/regenrek/winrestore/internal/lifecycle"
	"github.com/regenrek/winrestore/internal/profiling"
	"github.com/regenrek/winrestore/internal/restart"
	"github.com/regenrek/winrestore/internal/winstate"
)

// Register registers the daemon handler.
func Register(reg *root.Registry) {
	reg.Register("daemon", runDaemon)
}

type trigger int

const (
	// triggerSave persists state without restarting.
	triggerSave trigger = iota
	// triggerRestart runs the wrapped restart handler and schedules a
	// restore for the replacement instance.
	triggerRestart
)

func (t trigger) String() string {
	switch t {
	case triggerSave:
		return "save"
	case triggerRestart:
		return "restart"
	default:
		return "unknown"
	}
}

func runDaemon(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	slot := &restartSlot{out: ctx.ErrOut, logger: svc.Logger}
	if err := slot.set(svc.Config.Restart.Command); err != nil {
		return err
	}
	handlers := hook.NewMap[lifecycle.RestartHandler]()
	handlers.Install(lifecycle.RestartHook, slot.handle)

	delay := ctx.Duration("delay", svc.Config.Restore.Delay.Std())
	plugin, err := lifecycle.New(lifecycle.Options{
		Store:        svc.Store,
		Lister:       svc.Display,
		Handlers:     handlers,
		RestoreDelay: delay,
		Logger:       svc.Logger,
		OnRestore: func(r winstate.Report, err error) {
			profiling.Trigger("restore")
			if err != nil {
				return
			}
			svc.Logger.Info("daemon: restore pass done",
				slog.Int("matched", r.Matched),
				slog.Int("skipped", r.Skipped),
				slog.Int("failed", r.Failed))
		},
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	stopProfile := profiling.Start(sigCtx)
	defer stopProfile()
	watchConfig(sigCtx, ctx, slot)
	triggers, stopTriggers := notifyTriggers()
	defer stopTriggers()
	return serve(sigCtx, plugin, triggers, svc.Logger)
}

// restartSlot runs the configured restart command. Config reloads swap the
// command while the override stays installed.
type restartSlot struct {
	cmd    atomic.Pointer[restart.Command]
	out    io.Writer
	logger *slog.Logger
}

func (s *restartSlot) set(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		s.cmd.Store(nil)
		return nil
	}
	cmd, err := restart.Parse(line)
	if err != nil {
		return fmt.Errorf("restart.command: %w", err)
	}
	cmd.WithIO(nil, s.out, s.out)
	cmd.WithLogger(s.logger)
	s.cmd.Store(cmd)
	return nil
}

// handle runs the current command; without one it reports success.
func (s *restartSlot) handle(ctx context.Context, params lifecycle.RestartParams) (lifecycle.RestartResult, error) {
	cmd := s.cmd.Load()
	if cmd == nil {
		return lifecycle.RestartResult{}, nil
	}
	return cmd.Handle(ctx, params)
}

func watchConfig(ctx context.Context, cmdCtx root.CommandContext, slot *restartSlot) {
	path, err := cmdCtx.ConfigPath()
	if err != nil {
		slot.logger.Warn("daemon: config watch disabled", slog.Any("err", err))
		return
	}
	changes, err := confwatch.Watch(ctx, path, 0, slot.logger)
	if err != nil {
		slot.logger.Warn("daemon: config watch disabled", slog.Any("err", err))
		return
	}
	go func() {
		for range changes {
			reloadConfig(cmdCtx, slot)
		}
	}()
}

// reloadConfig applies restart.command from the config file. A broken file
// keeps the previous command.
func reloadConfig(cmdCtx root.CommandContext, slot *restartSlot) {
	cfg, err := cmdCtx.LoadConfig()
	if err != nil {
		slot.logger.Warn("daemon: config reload failed", slog.Any("err", err))
		return
	}
	if err := slot.set(cfg.Restart.Command); err != nil {
		slot.logger.Warn("daemon: config reload failed", slog.Any("err", err))
		return
	}
	slot.logger.Info("daemon: config reloaded", slog.Bool("restart_command", slot.cmd.Load() != nil))
}

// serve enables the plugin and handles triggers until ctx is done.
func serve(ctx context.Context, p *lifecycle.Plugin, triggers <-chan trigger, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Enable(ctx); err != nil {
		return err
	}
	logger.Info("daemon: started")
	defer func() {
		if err := p.Disable(); err != nil && !errors.Is(err, lifecycle.ErrNotEnabled) {
			logger.Warn("daemon: disable failed", slog.Any("err", err))
		}
		logger.Info("daemon: stopped")
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t, ok := <-triggers:
			if !ok {
				return nil
			}
			logger.Debug("daemon: trigger", slog.String("trigger", t.String()))
			if err := handle(ctx, p, t, logger); err != nil {
				return err
			}
		}
	}
}

func handle(ctx context.Context, p *lifecycle.Plugin, t trigger, logger *slog.Logger) error {
	switch t {
	case triggerSave:
		state, err := p.SaveNow(ctx)
		if err != nil {
			logger.Warn("daemon: save failed", slog.Any("err", err))
			return nil
		}
		logger.Info("daemon: saved", slog.Int("windows", len(state)))
		return nil
	case triggerRestart:
		res, err := p.Restart(ctx, lifecycle.RestartParams{Reason: "signal"})
		if err != nil {
			logger.Warn("daemon: restart failed", slog.Any("err", err))
		} else if res.ExitCode != 0 {
			logger.Warn("daemon: restart command exited", slog.Int("code", res.ExitCode))
		}
		// The replacement instance starts with a fresh deferred restore.
		if err := p.Disable(); err != nil {
			return err
		}
		return p.Enable(ctx)
	default:
		return nil
	}
}
