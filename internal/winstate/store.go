package winstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/logging"
	"github.com/regenrek/winrestore/internal/settings"
)

// DefaultKey is the settings key holding the saved state.
const DefaultKey = "saved-state"

// Resolver maps a live window to its identifier. *winid.Resolver
// implements it.
type Resolver interface {
	Resolve(ctx context.Context, w host.Window) (string, bool)
}

// Options configures a Store.
type Options struct {
	Key    string
	Raise  bool
	Logger *slog.Logger
}

// Store saves and restores window rectangles.
type Store struct {
	settings settings.Store
	resolver Resolver
	key      string
	raise    bool
	logger   *slog.Logger
}

// Report summarizes a restore pass.
type Report struct {
	Records int `json:"records"`
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NewStore returns a Store persisting to settings under opts.Key.
func NewStore(store settings.Store, resolver Resolver, opts Options) *Store {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		settings: store,
		resolver: resolver,
		key:      key,
		raise:    opts.Raise,
		logger:   logger,
	}
}

// Key returns the settings key in use.
func (s *Store) Key() string { return s.key }

// Capture builds a State from windows without persisting it. Desktop
// windows are dropped; the rest keep their order.
func (s *Store) Capture(ctx context.Context, windows []host.Window) (State, error) {
	state := make(State, 0, len(windows))
	for _, w := range host.WithoutDesktop(windows) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := s.resolver.Resolve(ctx, w)
		if !ok {
			id = ""
		}
		state = append(state, NewRecord(id, w.Frame()))
	}
	return state, nil
}

// Save captures windows and overwrites the persisted state.
func (s *Store) Save(ctx context.Context, windows []host.Window) (State, error) {
	state, err := s.Capture(ctx, windows)
	if err != nil {
		return nil, err
	}
	if err := s.Write(ctx, state); err != nil {
		return nil, err
	}
	s.logger.Info("winstate: saved",
		slog.Int("windows", len(state)),
		slog.Int("resolved", state.Resolved()))
	return state, nil
}

// Write persists state as the sole value of the key.
func (s *Store) Write(ctx context.Context, state State) error {
	raw, err := Encode(state)
	if err != nil {
		return err
	}
	if err := s.settings.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("winstate: write %q: %w", s.key, err)
	}
	return nil
}

// Load reads the persisted state. A key that was never written yields an
// empty state and no error.
func (s *Store) Load(ctx context.Context) (State, error) {
	raw, ok, err := s.settings.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("winstate: read %q: %w", s.key, err)
	}
	if !ok {
		return State{}, nil
	}
	return Decode(raw)
}

// Clear deletes the persisted state.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.settings.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("winstate: clear %q: %w", s.key, err)
	}
	return nil
}

// Restore applies each record to the first live non-desktop window whose
// identifier matches. Unmatched records are skipped; per-window failures
// are logged and counted. Only a cancelled ctx aborts the pass.
func (s *Store) Restore(ctx context.Context, state State, live []host.Window) (Report, error) {
	report := Report{Records: len(state)}
	candidates := host.WithoutDesktop(live)
	ids := make([]string, len(candidates))
	resolved := make([]bool, len(candidates))
	idAt := func(i int) string {
		if !resolved[i] {
			ids[i], _ = s.resolver.Resolve(ctx, candidates[i])
			resolved[i] = true
		}
		return ids[i]
	}

	for _, rec := range state {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if rec.ID == "" {
			report.Skipped++
			continue
		}
		match := -1
		for i := range candidates {
			if idAt(i) == rec.ID {
				match = i
				break
			}
		}
		if match < 0 {
			report.Skipped++
			continue
		}
		report.Matched++
		if err := s.apply(ctx, candidates[match], rec); err != nil {
			report.Failed++
			title, _ := candidates[match].Title()
			s.logger.Warn("winstate: restore window failed",
				slog.String("id", rec.ID),
				logging.TitleAttr(title),
				slog.Any("err", err))
		}
	}
	s.logger.Info("winstate: restored",
		slog.Int("records", report.Records),
		slog.Int("matched", report.Matched),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

// LoadAndRestore loads the persisted state and restores it. A missing
// state is a no-op.
func (s *Store) LoadAndRestore(ctx context.Context, lister host.Lister) (Report, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(state) == 0 {
		return Report{}, nil
	}
	live, err := lister.ListWindows(ctx)
	if err != nil {
		return Report{Records: len(state)}, fmt.Errorf("winstate: list windows: %w", err)
	}
	return s.Restore(ctx, state, live)
}

func (s *Store) apply(ctx context.Context, w host.Window, rec Record) error {
	var errs []error
	if err := w.MoveResizeFrame(ctx, rec.Rect()); err != nil {
		errs = append(errs, fmt.Errorf("move: %w", err))
	}
	if s.raise {
		if err := w.Raise(ctx); err != nil {
			errs = append(errs, fmt.Errorf("raise: %w", err))
		}
	}
	return errors.Join(errs...)
}
