// Package version implements the version command.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/identity"
)

// Info is the payload of version --json.
type Info struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
	Revision string `json:"revision,omitempty"`
}

// Register registers the version handler.
func Register(reg *root.Registry) {
	reg.Register("version", runVersion)
}

func runVersion(ctx root.CommandContext) error {
	info := current(ctx.Deps.Version)
	return ctx.Reply(info, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s %s\n", info.Name, info.Version)
		return err
	})
}

func current(version string) Info {
	info := Info{
		Name:     identity.CLIName,
		Version:  version,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}
