// Package clitest wires CLI dependencies to in-memory fakes.
package clitest

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/config"
	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/host/hosttest"
	"github.com/regenrek/winrestore/internal/runenv"
	"github.com/regenrek/winrestore/internal/settings"
	"github.com/regenrek/winrestore/internal/xtool"
)

// Display is a fake X display.
type Display struct {
	hosttest.Lister

	mu     sync.Mutex
	closed int
}

func (d *Display) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

// Closed reports how often Close was called.
func (d *Display) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// sharedStore keeps the memory store usable across command invocations.
type sharedStore struct {
	settings.Store
}

func (sharedStore) Close() error { return nil }

// noTools fails every tool call, so only the description strategy resolves.
type noTools struct{}

func (noTools) Children(context.Context, uint32) (string, error) { return "", xtool.ErrToolFailed }
func (noTools) ClientList(context.Context) ([]string, error)     { return nil, xtool.ErrToolFailed }
func (noTools) WindowProps(context.Context, string, ...string) (string, error) {
	return "", xtool.ErrToolFailed
}

// Env is a test environment for CLI handlers.
type Env struct {
	Config   config.Config
	Settings *settings.Memory
	Display  *Display
	Stdin    *strings.Reader
	Out      bytes.Buffer
	ErrOut   bytes.Buffer
}

// New returns an Env with the memory settings backend and windows on the
// fake display. State and config dirs point into t.TempDir.
func New(t *testing.T, windows ...*hosttest.Window) *Env {
	t.Helper()
	t.Setenv(runenv.StateDirEnv, t.TempDir())
	t.Setenv(runenv.ConfigDirEnv, t.TempDir())
	cfg := config.Defaults()
	cfg.Settings.Backend = config.BackendMemory
	cfg.Restore.Delay = 0
	return &Env{
		Config:   cfg,
		Settings: settings.NewMemory(),
		Display:  &Display{Lister: hosttest.Lister{Windows: hosttest.Windows(windows...)}},
		Stdin:    strings.NewReader(""),
	}
}

// Deps returns dependencies bound to the environment.
func (e *Env) Deps() root.Dependencies {
	return root.Dependencies{
		Version: "test",
		AppName: "winrestore",
		Stdout:  &e.Out,
		Stderr:  &e.ErrOut,
		Stdin:   e.Stdin,
		LoadConfig: func(string) (config.Config, error) {
			return e.Config, nil
		},
		OpenDisplay: func(context.Context, *slog.Logger) (root.Display, error) {
			return e.Display, nil
		},
		OpenSettings: func(settings.Options) (settings.Store, error) {
			return sharedStore{e.Settings}, nil
		},
		Introspector: func(config.Config) root.Introspector {
			return noTools{}
		},
	}
}

// SetWindows replaces the windows on the fake display.
func (e *Env) SetWindows(windows ...*hosttest.Window) {
	e.Display.Windows = hosttest.Windows(windows...)
}

// Saved returns the raw persisted state.
func (e *Env) Saved(t *testing.T) (string, bool) {
	t.Helper()
	raw, ok, err := e.Settings.Get(context.Background(), e.Config.Settings.Key)
	if err != nil {
		t.Fatalf("read saved state: %v", err)
	}
	return raw, ok
}

// Window is a shorthand for a normal window resolving to id through its
// description.
func Window(key, id, title string, r host.Rect) *hosttest.Window {
	desc := ""
	if id != "" {
		desc = id + " (" + title + ")"
	}
	return &hosttest.Window{ID: key, Name: title, Desc: desc, Rect: r}
}
