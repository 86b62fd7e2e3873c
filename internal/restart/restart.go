// Package restart runs a configured shell-restart command as the host
// restart handler.
package restart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/regenrek/winrestore/internal/lifecycle"
	"github.com/regenrek/winrestore/internal/logging"
)

// ErrNoCommand is returned when no restart command is configured.
var ErrNoCommand = errors.New("restart: command is required")

// Command is a parsed argv. It is never passed through a shell.
type Command struct {
	argv   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	run    func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Parse splits a command line using POSIX shell quoting rules.
func Parse(line string) (*Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrNoCommand
	}
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("restart: parse %q: %w", logging.SanitizeCommand(line), err)
	}
	return New(argv)
}

// New returns a Command for argv.
func New(argv []string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, ErrNoCommand
	}
	return &Command{
		argv:   append([]string(nil), argv...),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
		run:    exec.CommandContext,
	}, nil
}

// WithExec allows tests to override the exec implementation.
func (c *Command) WithExec(fn func(context.Context, string, ...string) *exec.Cmd) {
	c.run = fn
}

// WithIO sets the child's standard streams.
func (c *Command) WithIO(stdin io.Reader, stdout, stderr io.Writer) {
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
}

// WithLogger sets the logger.
func (c *Command) WithLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Argv returns a copy of the command vector.
func (c *Command) Argv() []string {
	return append([]string(nil), c.argv...)
}

// String renders the command with shell quoting.
func (c *Command) String() string {
	return shellquote.Join(c.argv...)
}

// Handle runs the command with params.Args appended. A non-zero exit is
// reported in the result, not as an error; only a failure to start is an
// error.
func (c *Command) Handle(ctx context.Context, params lifecycle.RestartParams) (lifecycle.RestartResult, error) {
	args := append(append([]string(nil), c.argv[1:]...), params.Args...)
	cmd := c.run(ctx, c.argv[0], args...)
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	c.logger.Info("restart: running",
		slog.String("command", logging.SanitizeCommand(c.String())),
		slog.String("reason", params.Reason))
	err := cmd.Run()
	if err == nil {
		return lifecycle.RestartResult{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return lifecycle.RestartResult{ExitCode: exitErr.ExitCode()}, nil
	}
	return lifecycle.RestartResult{ExitCode: 1}, fmt.Errorf("restart: run %s: %w", c.argv[0], err)
}

// Handler returns Handle as a lifecycle.RestartHandler.
func (c *Command) Handler() lifecycle.RestartHandler {
	return c.Handle
}
