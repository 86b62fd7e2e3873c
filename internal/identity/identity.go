package identity

import (
	"path/filepath"
	"slices"
	"strings"
)

const (
	BrandName = "WinRestore"
	// AppSlug is the canonical identifier for on-disk state and log attributes.
	AppSlug = "winrestore"
	CLIName = "winrestore"

	GlobalConfigFileYML  = "config.yml"
	GlobalConfigFileTOML = "config.toml"

	SettingsFileJSON   = "settings.json"
	SettingsFileSQLite = "settings.db"

	// StateKey is the settings key holding the serialized window list.
	StateKey = "saved-state"
)

// InputAliases are other names the binary may be installed under.
var InputAliases = []string{"wr"}

// ResolveBinaryName returns the name help output shows: the alias the
// binary was started as, otherwise CLIName.
func ResolveBinaryName(args []string) string {
	if len(args) == 0 {
		return CLIName
	}
	base := strings.ToLower(filepath.Base(args[0]))
	if slices.Contains(InputAliases, base) {
		return base
	}
	return CLIName
}
