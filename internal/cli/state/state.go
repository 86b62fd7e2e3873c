package state

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/regenrek/winrestore/internal/cli/output"
	"github.com/regenrek/winrestore/internal/cli/root"
	"github.com/regenrek/winrestore/internal/winstate"
)

// Register registers save, show, restore and clear handlers.
func Register(reg *root.Registry) {
	reg.Register("save", runSave)
	reg.Register("show", runShow)
	reg.Register("restore", runRestore)
	reg.Register("clear", runClear)
}

func runSave(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	windows, err := svc.Display.ListWindows(ctx.Context)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	saved, err := svc.Store.Save(ctx.Context, windows)
	if err != nil {
		return err
	}
	return ctx.Reply(savedState(svc, saved), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Saved %d windows (%d resolved).\n", len(saved), saved.Resolved())
		return err
	})
}

func runShow(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{NoDisplay: true})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	saved, err := svc.Store.Load(ctx.Context)
	if err != nil {
		return err
	}
	result := savedState(svc, saved)
	return ctx.Reply(result, func(w io.Writer) error {
		if len(saved) == 0 {
			_, err := fmt.Fprintln(w, "No saved state.")
			return err
		}
		return output.RenderRecords(w, result.Records)
	})
}

func runRestore(ctx root.CommandContext) error {
	if err := wait(ctx.Context, ctx.Duration("delay", 0)); err != nil {
		return err
	}
	svc, err := ctx.OpenServices(root.ServiceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	report, err := svc.Store.LoadAndRestore(ctx.Context, svc.Display)
	if err != nil {
		return err
	}
	return ctx.Reply(restoreResult(report), func(w io.Writer) error {
		if report.Records == 0 {
			_, err := fmt.Fprintln(w, "No saved state.")
			return err
		}
		_, err := fmt.Fprintf(w, "Restored %d of %d windows (%d skipped, %d failed).\n",
			report.Matched-report.Failed, report.Records, report.Skipped, report.Failed)
		return err
	})
}

func runClear(ctx root.CommandContext) error {
	svc, err := ctx.OpenServices(root.ServiceOptions{NoDisplay: true})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if err := svc.Store.Clear(ctx.Context); err != nil {
		return err
	}
	return ctx.Reply(output.ActionResult{Action: "clear", Status: "ok"}, func(io.Writer) error {
		_, err := fmt.Fprintln(ctx.ErrOut, "Saved state cleared.")
		return err
	})
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func savedState(svc *root.Services, saved winstate.State) output.SavedState {
	records := make([]output.WindowRecord, 0, len(saved))
	for i, rec := range saved {
		records = append(records, output.WindowRecord{
			Index:  i + 1,
			ID:     rec.ID,
			X:      rec.X,
			Y:      rec.Y,
			Width:  rec.Width,
			Height: rec.Height,
		})
	}
	return output.SavedState{
		Key:      svc.Store.Key(),
		Backend:  svc.Config.Settings.Backend,
		Path:     svc.SettingsPath,
		Count:    len(saved),
		Resolved: saved.Resolved(),
		Records:  records,
	}
}

func restoreResult(r winstate.Report) output.RestoreResult {
	return output.RestoreResult{
		Records: r.Records,
		Matched: r.Matched,
		Skipped: r.Skipped,
		Failed:  r.Failed,
	}
}
