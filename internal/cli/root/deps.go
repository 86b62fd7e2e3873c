package root

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/regenrek/winrestore/internal/config"
	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/host/x11"
	"github.com/regenrek/winrestore/internal/identity"
	"github.com/regenrek/winrestore/internal/settings"
)

// Display is a live window source that holds a connection.
type Display interface {
	host.Lister
	Close() error
}

// Dependencies provides external services for CLI handlers.
type Dependencies struct {
	Version string
	AppName string

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	LoadConfig   func(path string) (config.Config, error)
	OpenDisplay  func(ctx context.Context, logger *slog.Logger) (Display, error)
	OpenSettings func(opts settings.Options) (settings.Store, error)
	// Introspector overrides the xwininfo/xprop client, mainly for tests.
	Introspector func(cfg config.Config) Introspector
}

// DefaultDependencies returns dependencies wired to production services.
func DefaultDependencies(version string) Dependencies {
	return Dependencies{
		Version:      version,
		AppName:      identity.CLIName,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Stdin:        os.Stdin,
		LoadConfig:   config.Load,
		OpenDisplay:  openX11,
		OpenSettings: settings.Open,
	}
}

func openX11(_ context.Context, logger *slog.Logger) (Display, error) {
	return x11.Open(logger)
}
