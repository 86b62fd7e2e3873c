//go:build !windows

package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"log/slog"

	"github.com/regenrek/winrestore/internal/identity"
	"github.com/regenrek/winrestore/internal/runenv"
)

var dirPermsWarnOnce sync.Once

// ConfigDirPath returns the config directory without creating it.
func ConfigDirPath() (string, error) {
	if override := runenv.ConfigDir(); override != "" {
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, identity.AppSlug), nil
}

// StateDirPath returns the directory holding persisted window state without creating it.
func StateDirPath() (string, error) {
	if override := runenv.StateDir(); override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, identity.AppSlug), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", identity.AppSlug), nil
}

// RuntimeDirPath returns the directory for daemon logs without creating it.
func RuntimeDirPath() (string, error) {
	if override := runenv.RuntimeDir(); override != "" {
		return override, nil
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, identity.AppSlug), nil
	}
	return StateDirPath()
}

// StateDir returns the state directory, creating it with 0700 permissions.
func StateDir() (string, error) {
	dir, err := StateDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.StateDir() != "")
}

// RuntimeDir returns the runtime directory, creating it with 0700 permissions.
func RuntimeDir() (string, error) {
	dir, err := RuntimeDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.RuntimeDir() != "")
}

// EnsureDir creates dir with 0700 permissions or tightens an existing one it owns.
// Overrides chosen by the user are only warned about.
func EnsureDir(dir string, isOverride bool) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("app dir is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat app dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create app dir: %w", err)
		}
		return dir, nil
	}
	if !info.IsDir() {
		return "", fmt.Errorf("app dir %q is not a directory", dir)
	}
	mode := info.Mode().Perm()
	if mode&0o077 == 0 {
		return dir, nil
	}
	if isOverride {
		dirPermsWarnOnce.Do(func() {
			slog.Warn("app dir is group/world accessible; consider chmod 0700", "path", dir, "mode", mode.String())
		})
		return dir, nil
	}
	if ownedByCurrentUser(info) {
		if err := os.Chmod(dir, 0o700); err != nil {
			return "", fmt.Errorf("chmod app dir: %w", err)
		}
		return dir, nil
	}
	dirPermsWarnOnce.Do(func() {
		slog.Warn("app dir is not owned by current user; permissions unchanged", "path", dir, "mode", mode.String())
	})
	return dir, nil
}

func ownedByCurrentUser(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return stat.Uid == uint32(os.Getuid())
}
