//go:build profiler
// +build profiler

package profiling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/felixge/fgprof"
	"github.com/google/gops/agent"

	"github.com/regenrek/winrestore/internal/userpath"
)

const (
	cpuProfileEnv      = "WINRESTORE_CPU_PROFILE"
	fgprofProfileEnv   = "WINRESTORE_FGPROF"
	memProfileEnv      = "WINRESTORE_MEM_PROFILE"
	profileSecsEnv     = "WINRESTORE_PROFILE_SECS"
	startOnRestoreEnv  = "WINRESTORE_PROFILE_START_ON_RESTORE"
	triggerWaitEnv     = "WINRESTORE_PROFILE_TRIGGER_TIMEOUT"
	gopsEnv            = "WINRESTORE_GOPS"
	gopsAddrEnv        = "WINRESTORE_GOPS_ADDR"
	defaultProfileSecs = 30
)

type profiler struct {
	cpuPath string
	fgPath  string
	memPath string
	gops    bool

	mu       sync.Mutex
	cpuFile  *os.File
	fgFile   *os.File
	fgStop   func() error
	stopOnce sync.Once
}

// Start begins the profiles selected through WINRESTORE_* variables and
// returns a function that stops them. It never returns nil.
func Start(ctx context.Context) func() {
	p := &profiler{
		cpuPath: strings.TrimSpace(os.Getenv(cpuProfileEnv)),
		fgPath:  strings.TrimSpace(os.Getenv(fgprofProfileEnv)),
		memPath: strings.TrimSpace(os.Getenv(memProfileEnv)),
		gops:    envBool(gopsEnv),
	}
	if p.cpuPath == "" && p.fgPath == "" && p.memPath == "" && !p.gops {
		return func() {}
	}
	if p.gops {
		p.startGops()
	}
	dur := durationFromEnv(profileSecsEnv, defaultProfileSecs*time.Second)
	go func() {
		if envBool(startOnRestoreEnv) {
			if !Wait(ctx, durationFromEnv(triggerWaitEnv, 0)) && ctx.Err() == nil {
				slog.Warn("profiling: trigger timeout; starting anyway")
			}
		}
		if ctx.Err() != nil {
			return
		}
		p.startCPU()
		p.startFgprof()
		timer := time.NewTimer(dur)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		p.stopSampling()
	}()
	return p.stop
}

func (p *profiler) startGops() {
	opts := agent.Options{ShutdownCleanup: false}
	if addr := strings.TrimSpace(os.Getenv(gopsAddrEnv)); addr != "" {
		opts.Addr = addr
	}
	if err := agent.Listen(opts); err != nil {
		slog.Warn("profiling: gops agent failed", slog.Any("err", err))
		return
	}
	slog.Info("profiling: gops agent listening")
}

func (p *profiler) startCPU() {
	if p.cpuPath == "" {
		return
	}
	file, err := createProfile(p.cpuPath)
	if err != nil {
		slog.Warn("profiling: cpu profile", slog.Any("err", err))
		return
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		slog.Warn("profiling: start cpu profile failed", slog.Any("err", err))
		return
	}
	p.mu.Lock()
	p.cpuFile = file
	p.mu.Unlock()
	slog.Info("profiling: cpu profile started", slog.String("path", file.Name()))
}

func (p *profiler) startFgprof() {
	if p.fgPath == "" {
		return
	}
	file, err := createProfile(p.fgPath)
	if err != nil {
		slog.Warn("profiling: fgprof profile", slog.Any("err", err))
		return
	}
	stop := fgprof.Start(file, fgprof.FormatPprof)
	p.mu.Lock()
	p.fgFile = file
	p.fgStop = stop
	p.mu.Unlock()
	slog.Info("profiling: fgprof profile started", slog.String("path", file.Name()))
}

func (p *profiler) stopSampling() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = p.cpuFile.Close()
		p.cpuFile = nil
	}
	if p.fgFile != nil {
		if err := p.fgStop(); err != nil {
			slog.Warn("profiling: fgprof stop failed", slog.Any("err", err))
		}
		_ = p.fgFile.Close()
		p.fgFile = nil
		p.fgStop = nil
	}
}

func (p *profiler) stop() {
	p.stopOnce.Do(func() {
		p.stopSampling()
		if p.memPath != "" {
			if err := writeHeapProfile(p.memPath); err != nil {
				slog.Warn("profiling: heap profile failed", slog.Any("err", err))
			}
		}
		if p.gops {
			agent.Close()
		}
	})
}

func writeHeapProfile(path string) error {
	file, err := createProfile(path)
	if err != nil {
		return err
	}
	if err := pprof.WriteHeapProfile(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func createProfile(raw string) (*os.File, error) {
	path, err := sanitizeProfilePath(raw)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
}

func sanitizeProfilePath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", errors.New("profile path is required")
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return "", fmt.Errorf("profile path contains control characters: %q", path)
		}
	}
	abs, err := filepath.Abs(userpath.ExpandUser(path))
	if err != nil {
		return "", fmt.Errorf("resolve profile path %q: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	return abs, nil
}

// durationFromEnv accepts a Go duration or a number of seconds.
func durationFromEnv(env string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("profiling: invalid env", slog.String("env", env), slog.Any("err", err))
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func envBool(env string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(env))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
