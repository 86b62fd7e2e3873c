package resolve

import (
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/regenrek/winrestore/internal/cli/output"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/logging"
)

// Register registers the resolve handler.
func Register(reg *root.Registry) {
	reg.Register("resolve", runResolve)
}

func runResolve(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{
		Strategies: ctx.Cmd.StringSlice("strategy"),
	})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	windows, err := svc.Display.ListWindows(ctx.Context)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	rows := make([]output.LiveWindow, 0, len(windows))
	for _, w := range host.WithoutDesktop(windows) {
		id, _ := svc.Resolver.Resolve(ctx.Context, w)
		title, err := w.Title()
		if err != nil {
			title = "<" + err.Error() + ">"
		}
		frame := w.Frame()
		rows = append(rows, output.LiveWindow{
			Key:    w.Key(),
			Type:   w.Type().String(),
			Title:  logging.SanitizeTitle(title),
			ID:     id,
			X:      frame.X,
			Y:      frame.Y,
			Width:  frame.Width,
			Height: frame.Height,
		})
	}
	if query := strings.TrimSpace(ctx.Cmd.String("match")); query != "" {
		rows = filterRows(rows, query)
	}
	return ctx.Reply(rows, func(w io.Writer) error {
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "No windows.")
			return err
		}
		return output.RenderLiveWindows(w, rows)
	})
}

type titleSource []output.LiveWindow

func (s titleSource) String(i int) string { return s[i].Title }

func (s titleSource) Len() int { return len(s) }

// filterRows keeps rows whose title fuzzy-matches query, best match first.
func filterRows(rows []output.LiveWindow, query string) []output.LiveWindow {
	matches := fuzzy.FindFrom(query, titleSource(rows))
	filtered := make([]output.LiveWindow, 0, len(matches))
	for _, match := range matches {
		filtered = append(filtered, rows[match.Index])
	}
	return filtered
}
