//go:build profiler
// +build profiler

package profiling

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// gate opens once; sampling that starts on the first restore waits on it.
type gate struct {
	once   sync.Once
	opened chan struct{}
	reason string
}

func newGate() *gate {
	return &gate{opened: make(chan struct{})}
}

func (g *gate) open(reason string) {
	g.once.Do(func() {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = "trigger"
		}
		g.reason = reason
		close(g.opened)
		slog.Info("profiling: trigger", slog.String("reason", reason))
	})
}

// wait reports whether the gate opened before timeout or ctx ended. A zero
// timeout waits without limit.
func (g *gate) wait(ctx context.Context, timeout time.Duration) bool {
	select {
	case <-g.opened:
		return true
	default:
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-g.opened:
		return true
	case <-expired:
	case <-ctx.Done():
	}
	return false
}

var restoreGate = newGate()

// Trigger marks the first restore pass; later calls are ignored.
func Trigger(reason string) { restoreGate.open(reason) }

// Wait blocks until Trigger is called, the timeout elapses, or ctx is done.
func Wait(ctx context.Context, timeout time.Duration) bool {
	return restoreGate.wait(ctx, timeout)
}
