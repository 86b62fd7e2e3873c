package restart

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"testing"

	"github.com/regenrek/winrestore/internal/lifecycle"
)

func TestParse(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"openbox --restart", []string{"openbox", "--restart"}},
		{`sh -c 'i3-msg restart && echo "done"'`, []string{"sh", "-c", `i3-msg restart && echo "done"`}},
		{`xfwm4 --replace --display=:0`, []string{"xfwm4", "--replace", "--display=:0"}},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.line)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.line, err)
		}
		if !reflect.DeepEqual(cmd.Argv(), tc.want) {
			t.Fatalf("Parse(%q) = %#v", tc.line, cmd.Argv())
		}
	}
	if _, err := Parse("  "); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("Parse(blank) err = %v", err)
	}
	if _, err := Parse(`sh -c 'unterminated`); err == nil {
		t.Fatalf("expected quoting error")
	}
}

func TestStringQuotes(t *testing.T) {
	cmd, _ := New([]string{"sh", "-c", "echo hi"})
	if got := cmd.String(); got != `sh -c 'echo hi'` {
		t.Fatalf("String() = %q", got)
	}
}

func TestHandle(t *testing.T) {
	cases := []struct {
		name     string
		exit     int
		wantExit int
	}{
		{"success", 0, 0},
		{"non-zero exit is a result", 4, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, _ := Parse("wm --restart")
			var gotName string
			var gotArgs []string
			cmd.WithExec(func(ctx context.Context, name string, args ...string) *exec.Cmd {
				gotName, gotArgs = name, args
				return helperCmd(ctx, "restarted\n", tc.exit)
			})
			var stdout bytes.Buffer
			cmd.WithIO(nil, &stdout, &bytes.Buffer{})
			res, err := cmd.Handle(context.Background(), lifecycle.RestartParams{Args: []string{"--sm-disable"}})
			if err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if res.ExitCode != tc.wantExit {
				t.Fatalf("exit = %d, want %d", res.ExitCode, tc.wantExit)
			}
			if gotName != "wm" || !reflect.DeepEqual(gotArgs, []string{"--restart", "--sm-disable"}) {
				t.Fatalf("ran %s %v", gotName, gotArgs)
			}
			if stdout.String() != "restarted\n" {
				t.Fatalf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestHandleStartFailure(t *testing.T) {
	cmd, _ := New([]string{"/nonexistent/winrestore-test-binary"})
	cmd.WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{})
	res, err := cmd.Handler()(context.Background(), lifecycle.RestartParams{})
	if err == nil {
		t.Fatalf("expected start error")
	}
	if res.ExitCode != 1 {
		t.Fatalf("exit = %d", res.ExitCode)
	}
}

func helperCmd(ctx context.Context, stdout string, exit int) *exec.Cmd {
	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"RESTART_HELPER_STDOUT="+stdout,
		"RESTART_HELPER_EXIT="+strconv.Itoa(exit),
	)
	return cmd
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	_, _ = os.Stdout.WriteString(os.Getenv("RESTART_HELPER_STDOUT"))
	code, _ := strconv.Atoi(os.Getenv("RESTART_HELPER_EXIT"))
	os.Exit(code)
}
