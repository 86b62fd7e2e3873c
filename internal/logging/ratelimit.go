package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultThrottleKeys = 1024

// Throttle lets one entry per key through each interval. The resolver keeps
// one so a window that never resolves is reported once, not on every save.
type Throttle struct {
	interval time.Duration
	maxKeys  int
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewThrottle returns a Throttle. A non-positive interval lets everything
// through.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		maxKeys:  defaultThrottleKeys,
		now:      time.Now,
		seen:     make(map[string]time.Time),
	}
}

// Allow reports whether key may log now and records it if so.
func (t *Throttle) Allow(key string) bool {
	if t == nil || key == "" || t.interval <= 0 {
		return true
	}
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.seen[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.seen[key] = now
	if len(t.seen) > t.maxKeys {
		t.expire(now)
	}
	return true
}

// Log writes msg through logger when level is enabled and key is allowed.
func (t *Throttle) Log(ctx context.Context, logger *slog.Logger, key string, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(ctx, level) || !t.Allow(key) {
		return
	}
	logger.LogAttrs(ctx, level, msg, attrs...)
}

// expire drops keys whose interval has passed, then the oldest keys until
// the map fits. Callers hold t.mu.
func (t *Throttle) expire(now time.Time) {
	for key, last := range t.seen {
		if now.Sub(last) >= t.interval {
			delete(t.seen, key)
		}
	}
	for len(t.seen) > t.maxKeys {
		var oldest string
		var oldestAt time.Time
		for key, last := range t.seen {
			if oldest == "" || last.Before(oldestAt) {
				oldest, oldestAt = key, last
			}
		}
		delete(t.seen, oldest)
	}
}
