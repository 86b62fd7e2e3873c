package root

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/regenrek/winrestore/internal/appdirs"
	"github.com/regenrek/winrestore/internal/config"
	"github.com/regenrek/winrestore/internal/settings"
	"github.com/regenrek/winrestore/internal/winid"
	"github.com/regenrek/winrestore/internal/winstate"
	"github.com/regenrek/winrestore/internal/xtool"
)

// Introspector is the tool client used by the resolver.
type Introspector = winid.Introspector

// Services bundles the objects a command works with. Close releases the
// display and the settings store.
type Services struct {
	Config       config.Config
	SettingsPath string
	Settings     settings.Store
	Display      Display
	Resolver     *winid.Resolver
	Store        *winstate.Store
	Logger       *slog.Logger
}

// ServiceOptions tweaks Services for a single command.
type ServiceOptions struct {
	// NoDisplay skips connecting to the X server.
	NoDisplay bool
	// Strategies overrides resolver.strategies.
	Strategies []string
}

// ConfigPath returns the --config value or the default location.
func (ctx CommandContext) ConfigPath() (string, error) {
	if ctx.Cmd != nil {
		if path := strings.TrimSpace(ctx.Cmd.String("config")); path != "" {
			return path, nil
		}
	}
	return config.DefaultPath()
}

// LoadConfig reads the config named by --config or the default location.
func (ctx CommandContext) LoadConfig() (config.Config, error) {
	load := ctx.Deps.LoadConfig
	if load == nil {
		load = config.Load
	}
	path, err := ctx.ConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// OpenServices loads config and opens the settings store and, unless
// opts.NoDisplay is set, the display.
func (ctx CommandContext) OpenServices(opts ServiceOptions) (*Services, error) {
	cfg, err := ctx.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	svc := &Services{Config: cfg, Logger: logger}

	stateDir, err := appdirs.StateDir()
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	openSettings := ctx.Deps.OpenSettings
	if openSettings == nil {
		openSettings = settings.Open
	}
	if cfg.Settings.Backend != config.BackendMemory {
		svc.SettingsPath = cfg.SettingsPath(stateDir)
	}
	svc.Settings, err = openSettings(settings.Options{
		Backend: cfg.Settings.Backend,
		Path:    svc.SettingsPath,
	})
	if err != nil {
		return nil, err
	}

	if !opts.NoDisplay {
		if ctx.Deps.OpenDisplay == nil {
			_ = svc.Close()
			return nil, ErrNoDisplay
		}
		svc.Display, err = ctx.Deps.OpenDisplay(ctx.Context, logger)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("%w: %w", ErrNoDisplay, err)
		}
	}

	names := cfg.Resolver.Strategies
	if len(opts.Strategies) > 0 {
		names = opts.Strategies
	}
	strategies, err := winid.ParseStrategies(names)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	var tools Introspector
	if ctx.Deps.Introspector != nil {
		tools = ctx.Deps.Introspector(cfg)
	} else {
		tools = xtool.NewClient(xtool.Options{
			Xwininfo: cfg.Tools.Xwininfo,
			Xprop:    cfg.Tools.Xprop,
			Timeout:  cfg.Resolver.ToolTimeout.Std(),
		})
	}
	svc.Resolver = winid.New(tools, winid.Options{
		Strategies: strategies,
		Marker:     cfg.Resolver.Marker,
		Logger:     logger,
	})
	svc.Store = winstate.NewStore(svc.Settings, svc.Resolver, winstate.Options{
		Key:    cfg.Settings.Key,
		Raise:  cfg.RaiseOnRestore(),
		Logger: logger,
	})
	return svc, nil
}

// Close releases the display and settings store.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Display != nil {
		errs = append(errs, s.Display.Close())
	}
	if s.Settings != nil {
		errs = append(errs, s.Settings.Close())
	}
	return errors.Join(errs...)
}
