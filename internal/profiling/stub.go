//go:build !profiler
// +build !profiler

package profiling

import (
	"context"
	"time"
)

// Start is a no-op in non-profiler builds.
func Start(context.Context) func() { return func() {} }

// Trigger is a no-op in non-profiler builds.
func Trigger(string) {}

// Wait returns immediately in non-profiler builds.
func Wait(context.Context, time.Duration) bool { return true }
