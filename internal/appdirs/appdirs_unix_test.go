//go:build !windows

package appdirs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/regenrek/winrestore/internal/runenv"
)

func TestStateDirPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv(runenv.StateDirEnv, dir)

	got, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir() error: %v", err)
	}
	if got != dir {
		t.Fatalf("StateDir() = %q, want %q", got, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat state dir: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("state dir perm = %o, want 0700", info.Mode().Perm())
	}
}

func TestStateDirPathOverrideDoesNotCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv(runenv.StateDirEnv, dir)

	got, err := StateDirPath()
	if err != nil {
		t.Fatalf("StateDirPath() error: %v", err)
	}
	if got != dir {
		t.Fatalf("StateDirPath() = %q, want %q", got, dir)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected state dir to not exist, err=%v", err)
	}
}

func TestStateDirPathUsesXDGStateHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv(runenv.StateDirEnv, "")
	t.Setenv("XDG_STATE_HOME", base)

	got, err := StateDirPath()
	if err != nil {
		t.Fatalf("StateDirPath() error: %v", err)
	}
	if got != filepath.Join(base, "winrestore") {
		t.Fatalf("StateDirPath() = %q", got)
	}
}

func TestConfigDirPathOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	t.Setenv(runenv.ConfigDirEnv, dir)

	got, err := ConfigDirPath()
	if err != nil {
		t.Fatalf("ConfigDirPath() error: %v", err)
	}
	if got != dir {
		t.Fatalf("ConfigDirPath() = %q, want %q", got, dir)
	}
}

func TestRuntimeDirFallsBackToState(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state")
	t.Setenv(runenv.RuntimeDirEnv, "")
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv(runenv.StateDirEnv, state)

	got, err := RuntimeDirPath()
	if err != nil {
		t.Fatalf("RuntimeDirPath() error: %v", err)
	}
	if got != state {
		t.Fatalf("RuntimeDirPath() = %q, want %q", got, state)
	}
}

func TestEnsureDirTightensDefaultPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(dir, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := EnsureDir(dir, false); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("perm = %o, want 0700", info.Mode().Perm())
	}
}

func TestEnsureDirOverrideLeavesPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "override")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Chmod(dir, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := EnsureDir(dir, true); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0o077 == 0 {
		t.Fatalf("expected override perms unchanged, got %v", info.Mode().Perm())
	}
}

func TestEnsureDirRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := EnsureDir(path, false); err == nil {
		t.Fatalf("expected error for non-directory")
	}
}
