package root

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/regenrek/winrestore/internal/cli/spec"
)

// PromptConfirm writes question to out and reads a yes/no answer from in.
// Anything but y or yes declines.
func PromptConfirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if out != nil {
		if _, err := fmt.Fprintf(out, "%s [y/N]: ", question); err != nil {
			return false, err
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// confirm asks the command's question unless --yes was given. Declining
// exits with status 1.
func confirm(ctx CommandContext) error {
	if ctx.Spec.Confirm == "" || ctx.Cmd.Bool(spec.FlagYes) {
		return nil
	}
	ok, err := PromptConfirm(ctx.Stdin, ctx.ErrOut, ctx.Spec.Confirm)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(ctx.ErrOut, "Aborted.")
		return cli.Exit("", 1)
	}
	return nil
}
