package initcfg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/regenrek/winrestore/internal/appdirs"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/identity"
)

// Register registers init handler.
func Register(reg *root.Registry) {
	reg.Register("init", runInit)
}

func runInit(ctx root.CommandContext) error {
	format := strings.ToLower(strings.TrimSpace(ctx.Cmd.String("format")))
	if format == "" {
		format = "yaml"
	}
	dir, err := appdirs.ConfigDirPath()
	if err != nil {
		return fmt.Errorf("cannot determine config dir: %w", err)
	}
	return initGlobal(ctx.Out, dir, format, ctx.Cmd.Bool("force"))
}

func initGlobal(out io.Writer, dir, format string, force bool) error {
	name, content := identity.GlobalConfigFileYML, yamlTemplate
	switch format {
	case "yaml", "yml":
	case "toml":
		name, content = identity.GlobalConfigFileTOML, tomlTemplate
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	configPath := filepath.Join(dir, name)
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(out, "Config already exists: %s\n", configPath)
			fmt.Fprintf(out, "Use --force to overwrite\n")
			return nil
		}
	}
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(out, "Initialized %s\n\n", identity.BrandName)
	fmt.Fprintf(out, "   Config: %s\n\n", configPath)
	fmt.Fprintf(out, "   Next steps:\n")
	fmt.Fprintf(out, "   • Set restart.command to your window manager's restart command\n")
	fmt.Fprintf(out, "   • Run '%s save' to capture the current layout\n", identity.CLIName)
	fmt.Fprintf(out, "   • Run '%s daemon' from your session startup\n", identity.CLIName)
	return nil
}

const yamlTemplate = `# WinRestore - Global Configuration

settings:
  # file | sqlite
  backend: file
  # path: ~/.local/state/winrestore/settings.json
  key: saved-state

restore:
  # Wait for the window manager to settle before restoring.
  delay: 1s
  # raise: true

resolver:
  # Tried in order; the first hit wins.
  strategies:
    - description
    - tree
    - enumeration
  marker: _NO_TITLE_BAR_ORIGINAL_STATE
  tool_timeout: 2s

tools:
  xwininfo: xwininfo
  xprop: xprop

restart:
  # Used by 'winrestore run' without arguments and by the daemon on SIGHUP.
  # command: openbox --restart
  command: ""

# logging:
#   level: info        # debug | info | warn | error
#   format: text       # text | json
#   sink: stderr       # stderr | file | none
#   file: ~/.local/state/winrestore/winrestore.log
#   max_size_mb: 10
#   max_backups: 3
#   max_age_days: 14
#   compress: true
`

const tomlTemplate = `# WinRestore - Global Configuration

[settings]
# file | sqlite
backend = "file"
# path = "~/.local/state/winrestore/settings.json"
key = "saved-state"

[restore]
# Wait for the window manager to settle before restoring.
delay = "1s"
# raise = true

[resolver]
# Tried in order; the first hit wins.
strategies = ["description", "tree", "enumeration"]
marker = "_NO_TITLE_BAR_ORIGINAL_STATE"
tool_timeout = "2s"

[tools]
xwininfo = "xwininfo"
xprop = "xprop"

[restart]
# Used by 'winrestore run' without arguments and by the daemon on SIGHUP.
# command = "openbox --restart"
command = ""

# [logging]
# level = "info"
# format = "text"
# sink = "stderr"
`
