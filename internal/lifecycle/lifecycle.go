// Package lifecycle wires the state store into the host: it wraps the
// restart handler so state is saved first, and schedules a restore after
// startup.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/regenrek/winrestore/internal/hook"
	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/winstate"
)

// RestartHook names the host restart handler.
const RestartHook = "restart"

// DefaultRestoreDelay lets the window manager settle before restoring.
const DefaultRestoreDelay = time.Second

// ErrNotEnabled is returned by Disable when Enable was never called.
var ErrNotEnabled = errors.New("lifecycle: plugin is not enabled")

// ErrNoRestartHandler is returned by Restart when nothing is installed.
var ErrNoRestartHandler = errors.New("lifecycle: no restart handler installed")

// RestartParams are forwarded untouched to the original handler.
type RestartParams struct {
	Reason string
	Args   []string
}

// RestartResult is returned untouched from the original handler.
type RestartResult struct {
	ExitCode int
}

// RestartHandler restarts the host.
type RestartHandler func(ctx context.Context, params RestartParams) (RestartResult, error)

// Timer is a pending one-shot task.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Options configures a Plugin.
type Options struct {
	Store    *winstate.Store
	Lister   host.Lister
	Handlers hook.Table[RestartHandler]
	// RestoreDelay is used as is; zero restores on the next scheduler tick.
	RestoreDelay time.Duration
	Scheduler    Scheduler
	// SkipRestore only installs the override, for an instance that is
	// about to be replaced.
	SkipRestore bool
	Logger      *slog.Logger
	// OnRestore is called after the deferred restore pass.
	OnRestore func(winstate.Report, error)
}

// Plugin owns the restart override and the pending restore.
type Plugin struct {
	store     *winstate.Store
	lister    host.Lister
	registry  *hook.Registry[RestartHandler]
	delay     time.Duration
	scheduler Scheduler
	skip      bool
	logger    *slog.Logger
	onRestore func(winstate.Report, error)

	// pass serializes save and restore passes.
	pass sync.Mutex

	mu      sync.Mutex
	enabled bool
	timer   Timer
	// done is closed when the scheduled restore callback returns.
	done   chan struct{}
	cancel context.CancelFunc
}

// New returns a disabled Plugin.
func New(opts Options) (*Plugin, error) {
	if opts.Store == nil {
		return nil, errors.New("lifecycle: store is required")
	}
	if opts.Lister == nil {
		return nil, errors.New("lifecycle: window lister is required")
	}
	if opts.Handlers == nil {
		return nil, errors.New("lifecycle: handler table is required")
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = realScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := opts.RestoreDelay
	if delay < 0 {
		delay = 0
	}
	return &Plugin{
		store:     opts.Store,
		lister:    opts.Lister,
		registry:  hook.NewRegistry[RestartHandler](opts.Handlers),
		delay:     delay,
		scheduler: scheduler,
		skip:      opts.SkipRestore,
		logger:    logger,
		onRestore: opts.OnRestore,
	}, nil
}

// Enable overrides the restart handler and schedules the deferred restore.
// Calling Enable twice is a no-op.
func (p *Plugin) Enable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return nil
	}
	if err := p.registry.Override(RestartHook, p.wrapRestart); err != nil {
		return fmt.Errorf("lifecycle: enable: %w", err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.enabled = true
	if !p.skip {
		done := make(chan struct{})
		p.done = done
		p.timer = p.scheduler.AfterFunc(p.delay, func() {
			defer close(done)
			p.deferredRestore(runCtx)
		})
	}
	p.logger.Debug("lifecycle: enabled", slog.Duration("restore_delay", p.delay))
	return nil
}

// Disable cancels a pending restore and puts the original restart handler
// back. A restore pass that already started is cancelled and waited for, so
// the store and lister are idle once Disable returns.
func (p *Plugin) Disable() error {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return ErrNotEnabled
	}
	running := p.done
	if p.timer != nil && p.timer.Stop() {
		running = nil
	}
	p.timer = nil
	p.done = nil
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.registry.Remove(RestartHook)
	p.enabled = false
	p.mu.Unlock()

	if running != nil {
		<-running
	}
	p.logger.Debug("lifecycle: disabled")
	return nil
}

// Enabled reports whether the override is installed.
func (p *Plugin) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// RestorePending reports whether the deferred restore has not run yet.
func (p *Plugin) RestorePending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// SaveNow lists live windows and persists their state.
func (p *Plugin) SaveNow(ctx context.Context) (winstate.State, error) {
	p.pass.Lock()
	defer p.pass.Unlock()
	windows, err := p.lister.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: list windows: %w", err)
	}
	return p.store.Save(ctx, windows)
}

// RestoreNow loads the persisted state and applies it to live windows.
func (p *Plugin) RestoreNow(ctx context.Context) (winstate.Report, error) {
	p.pass.Lock()
	defer p.pass.Unlock()
	return p.store.LoadAndRestore(ctx, p.lister)
}

func (p *Plugin) deferredRestore(ctx context.Context) {
	p.mu.Lock()
	p.timer = nil
	p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	report, err := p.RestoreNow(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("lifecycle: restore failed", slog.Any("err", err))
	}
	if p.onRestore != nil {
		p.onRestore(report, err)
	}
}

// Restart invokes the handler currently installed under RestartHook.
func (p *Plugin) Restart(ctx context.Context, params RestartParams) (RestartResult, error) {
	handler, ok := p.registry.Lookup(RestartHook)
	if !ok || handler == nil {
		return RestartResult{}, ErrNoRestartHandler
	}
	return handler(ctx, params)
}

// wrapRestart saves state before delegating. A failed save is logged and
// never blocks the restart.
func (p *Plugin) wrapRestart(original RestartHandler, ok bool) RestartHandler {
	return func(ctx context.Context, params RestartParams) (RestartResult, error) {
		if _, err := p.SaveNow(ctx); err != nil {
			p.logger.Warn("lifecycle: save before restart failed", slog.Any("err", err))
		}
		if !ok || original == nil {
			return RestartResult{}, nil
		}
		return original(ctx, params)
	}
}
