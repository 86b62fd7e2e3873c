//go:build windows

package appdirs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/regenrek/winrestore/internal/identity"
	"github.com/regenrek/winrestore/internal/runenv"
)

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

func StateDirPath() (string, error) {
	if override := runenv.StateDir(); override != "" {
		return override, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(dir, identity.AppSlug), nil
}

func StateDir() (string, error) {
	dir, err := StateDirPath()
	if err != nil {
		return "", err
	}
	return EnsureDir(dir, runenv.StateDir() != "")
}

func EnsureDir(dir string, _ bool) (string, error) {
	if dir == "" {
		return "", errors.New("app dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create app dir: %w", err)
	}
	return dir, nil
}

func RuntimeDirPath() (string, error) {
	return "", errors.New("runtime dirs are not supported on windows yet")
}

func RuntimeDir() (string, error) {
	return RuntimeDirPath()
}
