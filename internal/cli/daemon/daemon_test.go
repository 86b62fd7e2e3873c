package daemon

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/regenrek/winrestore/internal/cli/clitest"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/hook"
	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/host/hosttest"
	"github.com/regenrek/winrestore/internal/lifecycle"
	"github.com/regenrek/winrestore/internal/settings"
	"github.com/regenrek/winrestore/internal/winid"
	"github.com/regenrek/winrestore/internal/winstate"
)

type harness struct {
	plugin   *lifecycle.Plugin
	handlers *hook.Map[lifecycle.RestartHandler]
	settings *settings.Memory
	window   *hosttest.Window
	restores chan winstate.Report
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		handlers: hook.NewMap[lifecycle.RestartHandler](),
		settings: settings.NewMemory(),
		window: &hosttest.Window{
			ID:   "x11:1",
			Name: "Terminal",
			Desc: "0x1a00003 (Terminal)",
			Rect: host.Rect{X: 5, Y: 6, Width: 70, Height: 80},
		},
		restores: make(chan winstate.Report, 4),
	}
	store := winstate.NewStore(h.settings, winid.New(nil, winid.Options{}), winstate.Options{})
	plugin, err := lifecycle.New(lifecycle.Options{
		Store:    store,
		Lister:   &hosttest.Lister{Windows: hosttest.Windows(h.window)},
		Handlers: h.handlers,
		OnRestore: func(r winstate.Report, _ error) {
			h.restores <- r
		},
	})
	if err != nil {
		t.Fatalf("lifecycle.New error: %v", err)
	}
	h.plugin = plugin
	return h
}

func (h *harness) waitRestore(t *testing.T) winstate.Report {
	t.Helper()
	select {
	case r := <-h.restores:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for restore")
		return winstate.Report{}
	}
}

func TestServeRestoresAndRestarts(t *testing.T) {
	h := newHarness(t)
	if err := h.settings.Set(context.Background(), winstate.DefaultKey,
		`[{"id":"0x1a00003","x":1,"y":2,"width":3,"height":4}]`); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	restarted := make(chan string, 1)
	h.handlers.Install(lifecycle.RestartHook, func(ctx context.Context, _ lifecycle.RestartParams) (lifecycle.RestartResult, error) {
		raw, _, _ := h.settings.Get(ctx, winstate.DefaultKey)
		restarted <- raw
		return lifecycle.RestartResult{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	triggers := make(chan trigger)
	done := make(chan error, 1)
	go func() { done <- serve(ctx, h.plugin, triggers, nil) }()

	if r := h.waitRestore(t); r.Matched != 1 {
		t.Fatalf("first restore = %+v", r)
	}
	triggers <- triggerRestart
	select {
	case raw := <-restarted:
		// The first restore moved the window to the saved frame.
		want := `[{"id":"0x1a00003","x":1,"y":2,"width":3,"height":4}]`
		if raw != want {
			t.Fatalf("state at restart = %s, want %s", raw, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("restart handler not called")
	}
	if r := h.waitRestore(t); r.Matched != 1 {
		t.Fatalf("restore after restart = %+v", r)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
	if h.plugin.Enabled() {
		t.Fatalf("plugin still enabled after stop")
	}
	if _, ok := h.handlers.Lookup(lifecycle.RestartHook); !ok {
		t.Fatalf("original restart handler not reinstalled")
	}
}

func TestHandleSave(t *testing.T) {
	h := newHarness(t)
	if err := handle(context.Background(), h.plugin, triggerSave, nil); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	raw, ok, _ := h.settings.Get(context.Background(), winstate.DefaultKey)
	if !ok || raw != `[{"id":"0x1a00003","x":5,"y":6,"width":70,"height":80}]` {
		t.Fatalf("saved = %q ok=%v", raw, ok)
	}
}

func TestServeClosedTriggers(t *testing.T) {
	h := newHarness(t)
	triggers := make(chan trigger)
	close(triggers)
	if err := serve(context.Background(), h.plugin, triggers, nil); err != nil {
		t.Fatalf("serve error: %v", err)
	}
	if h.plugin.Enabled() {
		t.Fatalf("plugin still enabled")
	}
}

func TestTriggerString(t *testing.T) {
	if triggerSave.String() != "save" || triggerRestart.String() != "restart" || trigger(9).String() != "unknown" {
		t.Fatalf("unexpected trigger names")
	}
}

func TestRestartSlotReload(t *testing.T) {
	env := clitest.New(t)
	slot := &restartSlot{out: io.Discard, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	res, err := slot.handle(context.Background(), lifecycle.RestartParams{})
	if err != nil || res.ExitCode != 0 {
		t.Fatalf("handle without command = %+v, %v", res, err)
	}

	env.Config.Restart.Command = "openbox --restart"
	cmdCtx := root.CommandContext{Context: context.Background(), Deps: env.Deps()}
	reloadConfig(cmdCtx, slot)
	cmd := slot.cmd.Load()
	if cmd == nil || !reflect.DeepEqual(cmd.Argv(), []string{"openbox", "--restart"}) {
		t.Fatalf("command after reload = %v", cmd)
	}

	// A broken command keeps the previous one.
	env.Config.Restart.Command = "sh -c 'unterminated"
	reloadConfig(cmdCtx, slot)
	if slot.cmd.Load() != cmd {
		t.Fatalf("broken config replaced the command")
	}

	env.Config.Restart.Command = ""
	reloadConfig(cmdCtx, slot)
	if slot.cmd.Load() != nil {
		t.Fatalf("empty restart.command should clear the command")
	}
}
