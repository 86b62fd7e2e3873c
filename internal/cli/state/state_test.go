package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/clitest"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/host"
)

func newContext(t *testing.T, ctx context.Context, env *clitest.Env, name string, flags ...string) root.CommandContext {
	t.Helper()
	cmd := &cli.Command{
		Name: name,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json"},
			&cli.DurationFlag{Name: "delay"},
		},
	}
	for i := 0; i+1 < len(flags); i += 2 {
		if err := cmd.Set(flags[i], flags[i+1]); err != nil {
			t.Fatalf("cmd.Set(%s) error: %v", flags[i], err)
		}
	}
	return root.CommandContext{
		Context: ctx,
		Cmd:     cmd,
		Deps:    env.Deps(),
		JSON:    cmd.Bool("json"),
		Out:     &env.Out,
		ErrOut:  &env.ErrOut,
		Stdin:   env.Stdin,
	}
}

func TestSaveJSON(t *testing.T) {
	env := clitest.New(t,
		clitest.Window("x11:1", "0x1a00003", "Terminal", host.Rect{X: 1, Y: 2, Width: 3, Height: 4}),
		clitest.Window("x11:2", "", "Splash", host.Rect{Width: 5, Height: 6}),
	)
	if err := runSave(newContext(t, context.Background(), env, "save", "json", "true")); err != nil {
		t.Fatalf("runSave error: %v", err)
	}
	var payload struct {
		OK   bool `json:"ok"`
		Data struct {
			Key      string `json:"key"`
			Backend  string `json:"backend"`
			Count    int    `json:"count"`
			Resolved int    `json:"resolved"`
			Records  []struct {
				Index int    `json:"index"`
				ID    string `json:"id"`
			} `json:"records"`
		} `json:"data"`
	}
	if err := json.Unmarshal(env.Out.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal %q: %v", env.Out.String(), err)
	}
	d := payload.Data
	if !payload.OK || d.Key != "saved-state" || d.Backend != "memory" || d.Count != 2 || d.Resolved != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	if d.Records[0].Index != 1 || d.Records[0].ID != "0x1a00003" || d.Records[1].ID != "" {
		t.Fatalf("records = %+v", d.Records)
	}
	raw, _ := env.Saved(t)
	if !strings.Contains(raw, `"id":null`) {
		t.Fatalf("unresolved window not saved with a null id: %s", raw)
	}
}

func TestRestoreReportsFailures(t *testing.T) {
	good := clitest.Window("x11:1", "0x1a00003", "Terminal", host.Rect{Width: 1, Height: 1})
	bad := clitest.Window("x11:2", "0x2c00007", "Editor", host.Rect{Width: 1, Height: 1})
	bad.MoveErr = errors.New("BadWindow")
	env := clitest.New(t, good, bad)
	if err := env.Settings.Set(context.Background(), "saved-state",
		`[{"id":"0x2c00007","x":0,"y":0,"width":9,"height":9},{"id":null,"x":0,"y":0,"width":1,"height":1},{"id":"0x1a00003","x":5,"y":5,"width":50,"height":50}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := runRestore(newContext(t, context.Background(), env, "restore")); err != nil {
		t.Fatalf("runRestore error: %v", err)
	}
	if got := env.Out.String(); got != "Restored 1 of 3 windows (1 skipped, 1 failed).\n" {
		t.Fatalf("output = %q", got)
	}
	if moves := good.Moves(); len(moves) != 1 || moves[0] != (host.Rect{X: 5, Y: 5, Width: 50, Height: 50}) {
		t.Fatalf("moves = %v", moves)
	}
}

func TestRestoreDelayHonoursCancel(t *testing.T) {
	env := clitest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runRestore(newContext(t, ctx, env, "restore", "delay", "1h"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if env.Display.Closed() != 0 {
		t.Fatalf("display opened before the delay elapsed")
	}
}

func TestWait(t *testing.T) {
	if err := wait(context.Background(), 0); err != nil {
		t.Fatalf("wait(0) error: %v", err)
	}
	if err := wait(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("wait(1ms) error: %v", err)
	}
}

func TestShowTable(t *testing.T) {
	env := clitest.New(t)
	if err := env.Settings.Set(context.Background(), "saved-state",
		`[{"id":"0x1a00003","x":10,"y":20,"width":640,"height":480},{"id":null,"x":0,"y":0,"width":1,"height":1}]`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := runShow(newContext(t, context.Background(), env, "show")); err != nil {
		t.Fatalf("runShow error: %v", err)
	}
	out := env.Out.String()
	for _, want := range []string{"0x1a00003", "640", "480", "-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if env.Display.Closed() != 0 {
		t.Fatalf("show should not open the display")
	}
}
