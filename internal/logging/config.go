package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Sink selects where entries go.
type Sink string

const (
	SinkStderr Sink = "stderr"
	SinkFile   Sink = "file"
	SinkNone   Sink = "none"
)

// Environment overrides. They win over the config file.
const (
	EnvLogLevel      = "WINRESTORE_LOG_LEVEL"
	EnvLogFormat     = "WINRESTORE_LOG_FORMAT"
	EnvLogSink       = "WINRESTORE_LOG_SINK"
	EnvLogFile       = "WINRESTORE_LOG_FILE"
	EnvLogAddSource  = "WINRESTORE_LOG_ADD_SOURCE"
	EnvLogMaxSizeMB  = "WINRESTORE_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "WINRESTORE_LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays = "WINRESTORE_LOG_MAX_AGE_DAYS"
	EnvLogCompress   = "WINRESTORE_LOG_COMPRESS"
)

// Config is the logging section of the config file. Unset fields take the
// defaults of the running Mode.
type Config struct {
	Level     *string `yaml:"level,omitempty" toml:"level,omitempty"`
	Format    *string `yaml:"format,omitempty" toml:"format,omitempty"`
	Sink      *string `yaml:"sink,omitempty" toml:"sink,omitempty"`
	File      *string `yaml:"file,omitempty" toml:"file,omitempty"`
	AddSource *bool   `yaml:"add_source,omitempty" toml:"add_source,omitempty"`

	MaxSizeMB  *int  `yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	MaxBackups *int  `yaml:"max_backups,omitempty" toml:"max_backups,omitempty"`
	MaxAgeDays *int  `yaml:"max_age_days,omitempty" toml:"max_age_days,omitempty"`
	Compress   *bool `yaml:"compress,omitempty" toml:"compress,omitempty"`
}

// Validate checks the values set in the file, ignoring the environment.
func (c Config) Validate() error {
	_, err := resolve(c, ModeCLI, func(string) string { return "" })
	return err
}

// options is a Config resolved for one process.
type options struct {
	level     slog.Level
	format    Format
	sink      Sink
	file      string
	addSource bool

	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
}

// defaults keeps one-shot commands quiet and the daemon informative.
func defaults(mode Mode) options {
	o := options{
		level:      slog.LevelWarn,
		format:     FormatText,
		sink:       SinkStderr,
		maxSizeMB:  10,
		maxBackups: 3,
		maxAgeDays: 14,
		compress:   true,
	}
	if mode == ModeDaemon {
		o.level = slog.LevelInfo
		o.format = FormatJSON
		o.sink = SinkFile
	}
	return o
}

// resolve layers cfg and then the environment over the defaults for mode.
// Unknown names are errors; unparsable numbers from the environment are
// ignored, negative ones clamp to zero.
func resolve(cfg Config, mode Mode, getenv func(string) string) (options, error) {
	o := defaults(mode)
	pick := func(v *string, env string) string {
		if raw := strings.TrimSpace(getenv(env)); raw != "" {
			return raw
		}
		if v != nil {
			return strings.TrimSpace(*v)
		}
		return ""
	}
	var errs []error
	if raw := strings.ToLower(pick(cfg.Level, EnvLogLevel)); raw != "" {
		level, err := parseLevel(raw)
		if err != nil {
			errs = append(errs, err)
		}
		o.level = level
	}
	switch raw := Format(strings.ToLower(pick(cfg.Format, EnvLogFormat))); raw {
	case "":
	case FormatText, FormatJSON:
		o.format = raw
	default:
		errs = append(errs, fmt.Errorf("logging.format: invalid %q", raw))
	}
	switch raw := Sink(strings.ToLower(pick(cfg.Sink, EnvLogSink))); raw {
	case "":
	case SinkStderr, SinkFile, SinkNone:
		o.sink = raw
	default:
		errs = append(errs, fmt.Errorf("logging.sink: invalid %q", raw))
	}
	o.file = pick(cfg.File, EnvLogFile)

	o.addSource = pickBool(cfg.AddSource, getenv(EnvLogAddSource), o.addSource)
	o.compress = pickBool(cfg.Compress, getenv(EnvLogCompress), o.compress)
	o.maxSizeMB = pickInt(cfg.MaxSizeMB, getenv(EnvLogMaxSizeMB), o.maxSizeMB)
	o.maxBackups = pickInt(cfg.MaxBackups, getenv(EnvLogMaxBackups), o.maxBackups)
	o.maxAgeDays = pickInt(cfg.MaxAgeDays, getenv(EnvLogMaxAgeDays), o.maxAgeDays)
	return o, errors.Join(errs...)
}

func parseLevel(value string) (slog.Level, error) {
	switch value {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging.level: invalid %q", value)
	}
}

func pickBool(v *bool, env string, fallback bool) bool {
	if env = strings.TrimSpace(env); env != "" {
		switch strings.ToLower(env) {
		case "0", "false", "no", "off":
			return false
		default:
			return true
		}
	}
	if v != nil {
		return *v
	}
	return fallback
}

func pickInt(v *int, env string, fallback int) int {
	n := fallback
	if v != nil {
		n = *v
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
		n = parsed
	}
	return max(n, 0)
}
