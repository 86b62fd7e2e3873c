package runenv

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ConfigDirEnv    = "WINRESTORE_CONFIG_DIR"
	StateDirEnv     = "WINRESTORE_STATE_DIR"
	RuntimeDirEnv   = "WINRESTORE_RUNTIME_DIR"
	RestoreDelayEnv = "WINRESTORE_RESTORE_DELAY"
	NoRaiseEnv      = "WINRESTORE_NO_RAISE"
)

func enabledEnv(name string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return false
	}
	switch strings.ToLower(value) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func NoRaise() bool {
	return enabledEnv(NoRaiseEnv)
}

func ConfigDir() string {
	return strings.TrimSpace(os.Getenv(ConfigDirEnv))
}

func StateDir() string {
	return strings.TrimSpace(os.Getenv(StateDirEnv))
}

func RuntimeDir() string {
	return strings.TrimSpace(os.Getenv(RuntimeDirEnv))
}

// RestoreDelay reports the restore settle delay override. Plain integers are
// read as milliseconds. A zero delay is valid and means "restore immediately".
func RestoreDelay() (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(RestoreDelayEnv))
	if raw == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return 0, false
		}
		return d, true
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
