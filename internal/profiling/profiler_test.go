//go:build profiler
// +build profiler

package profiling

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGateTimesOutWhileClosed(t *testing.T) {
	g := newGate()
	if g.wait(context.Background(), 20*time.Millisecond) {
		t.Fatalf("expected wait to time out")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if g.wait(ctx, 0) {
		t.Fatalf("expected wait to stop on a cancelled context")
	}
}

func TestGateOpensOnce(t *testing.T) {
	g := newGate()
	go func() {
		time.Sleep(10 * time.Millisecond)
		g.open("restore")
	}()
	if !g.wait(context.Background(), time.Second) {
		t.Fatalf("expected wait to return after open")
	}
	g.open("later")
	if g.reason != "restore" {
		t.Fatalf("reason = %q", g.reason)
	}
	if !g.wait(context.Background(), time.Millisecond) {
		t.Fatalf("an open gate should not block")
	}
}

func TestGateDefaultReason(t *testing.T) {
	g := newGate()
	g.open("  ")
	if g.reason != "trigger" {
		t.Fatalf("reason = %q", g.reason)
	}
}

func TestDurationFromEnv(t *testing.T) {
	cases := map[string]time.Duration{
		"":      time.Minute,
		"90s":   90 * time.Second,
		"5":     5 * time.Second,
		"bogus": time.Minute,
	}
	for raw, want := range cases {
		t.Setenv(profileSecsEnv, raw)
		if got := durationFromEnv(profileSecsEnv, time.Minute); got != want {
			t.Fatalf("durationFromEnv(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestStartWritesHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "heap.pprof")
	t.Setenv(memProfileEnv, path)
	t.Setenv(cpuProfileEnv, "")
	t.Setenv(fgprofProfileEnv, "")
	t.Setenv(gopsEnv, "")
	ctx, cancel := context.WithCancel(context.Background())
	stop := Start(ctx)
	cancel()
	stop()
	stop()
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("heap profile missing: %v", err)
	}
}

func TestSanitizeProfilePathRejectsControl(t *testing.T) {
	if _, err := sanitizeProfilePath("bad\npath"); err == nil {
		t.Fatalf("expected control character error")
	}
	if _, err := sanitizeProfilePath("  "); err == nil {
		t.Fatalf("expected empty path error")
	}
}
