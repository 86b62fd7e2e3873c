package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/regenrek/winrestore/internal/appdirs"
	"github.com/regenrek/winrestore/internal/identity"
)

const defaultLogFile = "daemon.log"

type InitOptions struct {
	App     string
	Version string
	Mode    Mode
	// Stderr replaces os.Stderr for the stderr sink.
	Stderr io.Writer
	// Getenv replaces os.Getenv for the WINRESTORE_LOG_* overrides.
	Getenv func(string) string
}

// Init installs the logger built by New as the slog default and returns a
// closer for its sink.
func Init(cfg Config, opts InitOptions) (func() error, error) {
	logger, closeFn, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closeFn, nil
}

// New builds a logger from cfg, the environment and the mode defaults.
// Every entry carries the app, version and mode.
func New(cfg Config, opts InitOptions) (*slog.Logger, func() error, error) {
	if opts.App == "" {
		opts.App = identity.AppSlug
	}
	if opts.Mode == 0 {
		opts.Mode = ModeCLI
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	o, err := resolve(cfg, opts.Mode, opts.Getenv)
	if err != nil {
		return nil, nil, err
	}
	w, closeFn, err := o.writer(opts.Stderr)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: o.level, AddSource: o.addSource}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if o.format == FormatJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	logger := slog.New(handler).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
		slog.String("mode", opts.Mode.String()),
	)
	return logger, closeFn, nil
}

func (o options) writer(stderr io.Writer) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch o.sink {
	case SinkNone:
		return io.Discard, noop, nil
	case SinkFile:
		rot, err := o.rotator()
		if err != nil {
			return nil, nil, err
		}
		return rot, rot.Close, nil
	default:
		if stderr == nil {
			stderr = os.Stderr
		}
		return stderr, noop, nil
	}
}

// rotator opens the log file under the runtime dir unless a file is
// configured. Loose permissions on a configured parent are only warned about.
func (o options) rotator() (*lumberjack.Logger, error) {
	path := o.file
	custom := path != ""
	if !custom {
		dir, err := appdirs.RuntimeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, defaultLogFile)
	}
	if dir := filepath.Dir(path); dir != "." {
		if _, err := appdirs.EnsureDir(dir, custom); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    o.maxSizeMB,
		MaxBackups: o.maxBackups,
		MaxAge:     o.maxAgeDays,
		Compress:   o.compress,
	}, nil
}
