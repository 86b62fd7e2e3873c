package xtool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrToolFailed reports a missing binary or a non-zero exit from an X11
// introspection tool.
var ErrToolFailed = errors.New("xtool: tool invocation failed")

const (
	DefaultXwininfo = "xwininfo"
	DefaultXprop    = "xprop"
	DefaultTimeout  = 2 * time.Second
)

// Client runs xwininfo and xprop. Arguments are always passed as an argv
// vector so window titles never reach a shell.
type Client struct {
	xwininfo string
	xprop    string
	timeout  time.Duration
	run      func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Options configures the tool binaries.
type Options struct {
	Xwininfo string
	Xprop    string
	Timeout  time.Duration
}

// NewClient returns a Client. Binaries that cannot be found on PATH are kept
// by name; invoking them fails with ErrToolFailed instead of failing here.
func NewClient(opts Options) *Client {
	c := &Client{
		xwininfo: lookup(opts.Xwininfo, DefaultXwininfo),
		xprop:    lookup(opts.Xprop, DefaultXprop),
		timeout:  opts.Timeout,
		run:      exec.CommandContext,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

func lookup(bin, fallback string) string {
	bin = strings.TrimSpace(bin)
	if bin == "" {
		bin = fallback
	}
	if path, err := exec.LookPath(bin); err == nil {
		return path
	}
	return bin
}

// WithExec allows tests to override the exec implementation.
func (c *Client) WithExec(fn func(context.Context, string, ...string) *exec.Cmd) {
	c.run = fn
}

// Binaries returns the resolved xwininfo and xprop paths.
func (c *Client) Binaries() (xwininfo, xprop string) {
	return c.xwininfo, c.xprop
}

// Children returns the raw `xwininfo -children` tree for a window.
func (c *Client) Children(ctx context.Context, xid uint32) (string, error) {
	return c.output(ctx, c.xwininfo, "-children", "-id", FormatID(xid))
}

// ClientList returns the window ids listed in the root _NET_CLIENT_LIST.
func (c *Client) ClientList(ctx context.Context) ([]string, error) {
	out, err := c.output(ctx, c.xprop, "-root", "_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	return ParseHexIDs(out), nil
}

// WindowProps returns the raw xprop output for the given properties of a window.
func (c *Client) WindowProps(ctx context.Context, id string, props ...string) (string, error) {
	id = strings.TrimSpace(id)
	if !IsHexID(id) {
		return "", fmt.Errorf("xtool: invalid window id %q", id)
	}
	args := append([]string{"-id", id}, props...)
	return c.output(ctx, c.xprop, args...)
}

func (c *Client) output(ctx context.Context, bin string, args ...string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := c.run(ctx, bin, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", wrapToolErr(bin, args, err)
	}
	text := string(out)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s %s: empty output", ErrToolFailed, bin, strings.Join(args, " "))
	}
	return text, nil
}

func wrapToolErr(bin string, args []string, err error) error {
	detail := ""
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail = strings.TrimSpace(string(exitErr.Stderr))
	}
	if detail == "" {
		return fmt.Errorf("%w: %s %s: %v", ErrToolFailed, bin, strings.Join(args, " "), err)
	}
	return fmt.Errorf("%w: %s %s: %v: %s", ErrToolFailed, bin, strings.Join(args, " "), err, detail)
}
