package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/regenrek/winrestore/internal/appdirs"
	"github.com/regenrek/winrestore/internal/identity"
	"github.com/regenrek/winrestore/internal/logging"
	"github.com/regenrek/winrestore/internal/runenv"
	"github.com/regenrek/winrestore/internal/userpath"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultRestoreDelay = time.Second
	DefaultToolTimeout  = 2 * time.Second
	DefaultMarker       = "_NO_TITLE_BAR_ORIGINAL_STATE"
)

var DefaultStrategies = []string{"description", "tree", "enumeration"}

// Config represents ~/.config/winrestore/config.yml (or config.toml).
type Config struct {
	Settings SettingsConfig `yaml:"settings" toml:"settings"`
	Restore  RestoreConfig  `yaml:"restore" toml:"restore"`
	Resolver ResolverConfig `yaml:"resolver" toml:"resolver"`
	Tools    ToolsConfig    `yaml:"tools" toml:"tools"`
	Restart  RestartConfig  `yaml:"restart" toml:"restart"`
	Logging  logging.Config `yaml:"logging" toml:"logging"`
}

// SettingsConfig selects where the saved window list lives.
type SettingsConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
	Key     string `yaml:"key" toml:"key"`
}

// RestoreConfig controls the deferred restore pass.
type RestoreConfig struct {
	Delay Duration `yaml:"delay" toml:"delay"`
	Raise *bool    `yaml:"raise,omitempty" toml:"raise,omitempty"`
}

// ResolverConfig controls window identifier resolution.
type ResolverConfig struct {
	Strategies  []string `yaml:"strategies" toml:"strategies"`
	Marker      string   `yaml:"marker" toml:"marker"`
	ToolTimeout Duration `yaml:"tool_timeout" toml:"tool_timeout"`
}

// ToolsConfig overrides the X11 introspection binaries.
type ToolsConfig struct {
	Xwininfo string `yaml:"xwininfo" toml:"xwininfo"`
	Xprop    string `yaml:"xprop" toml:"xprop"`
}

// RestartConfig names the command the run/daemon commands treat as the
// host restart handler.
type RestartConfig struct {
	Command string `yaml:"command" toml:"command"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Settings: SettingsConfig{
			Backend: BackendFile,
			Key:     identity.StateKey,
		},
		Restore: RestoreConfig{
			Delay: Duration(DefaultRestoreDelay),
		},
		Resolver: ResolverConfig{
			Strategies:  append([]string(nil), DefaultStrategies...),
			Marker:      DefaultMarker,
			ToolTimeout: Duration(DefaultToolTimeout),
		},
		Tools: ToolsConfig{
			Xwininfo: "xwininfo",
			Xprop:    "xprop",
		},
	}
}

// DefaultPath returns the global config path, preferring config.yml and
// falling back to an existing config.toml.
func DefaultPath() (string, error) {
	dir, err := appdirs.ConfigDirPath()
	if err != nil {
		return "", err
	}
	yml := filepath.Join(dir, identity.GlobalConfigFileYML)
	if _, err := os.Stat(yml); err == nil {
		return yml, nil
	}
	tomlPath := filepath.Join(dir, identity.GlobalConfigFileTOML)
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	return yml, nil
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, errors.New("config: path is required")
	}
	data, err := os.ReadFile(userpath.ExpandUser(path))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Defaults(), fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}

func (c *Config) applyDefaults() {
	def := Defaults()
	c.Settings.Backend = strings.ToLower(strings.TrimSpace(c.Settings.Backend))
	if c.Settings.Backend == "" {
		c.Settings.Backend = def.Settings.Backend
	}
	if strings.TrimSpace(c.Settings.Key) == "" {
		c.Settings.Key = def.Settings.Key
	}
	if len(c.Resolver.Strategies) == 0 {
		c.Resolver.Strategies = def.Resolver.Strategies
	}
	if strings.TrimSpace(c.Resolver.Marker) == "" {
		c.Resolver.Marker = def.Resolver.Marker
	}
	if c.Resolver.ToolTimeout <= 0 {
		c.Resolver.ToolTimeout = def.Resolver.ToolTimeout
	}
	if strings.TrimSpace(c.Tools.Xwininfo) == "" {
		c.Tools.Xwininfo = def.Tools.Xwininfo
	}
	if strings.TrimSpace(c.Tools.Xprop) == "" {
		c.Tools.Xprop = def.Tools.Xprop
	}
}

func (c *Config) applyEnv() {
	if d, ok := runenv.RestoreDelay(); ok {
		c.Restore.Delay = Duration(d)
	}
	if runenv.NoRaise() {
		raise := false
		c.Restore.Raise = &raise
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch c.Settings.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("settings.backend: invalid %q", c.Settings.Backend)
	}
	for _, name := range c.Resolver.Strategies {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "description", "tree", "enumeration":
		default:
			return fmt.Errorf("resolver.strategies: unknown strategy %q", name)
		}
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

// RaiseOnRestore reports whether restored windows are raised (default true).
func (c Config) RaiseOnRestore() bool {
	return c.Restore.Raise == nil || *c.Restore.Raise
}

// SettingsPath resolves the settings store location. Relative paths are
// anchored at stateDir.
func (c Config) SettingsPath(stateDir string) string {
	if path := userpath.Resolve(c.Settings.Path, stateDir); path != "" {
		return path
	}
	name := identity.SettingsFileJSON
	if c.Settings.Backend == BackendSQLite {
		name = identity.SettingsFileSQLite
	}
	return filepath.Join(stateDir, name)
}
