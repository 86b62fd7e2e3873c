// Package hosttest provides in-memory host windows for tests.
package hosttest

import (
	"context"
	"sync"

	"github.com/regenrek/winrestore/internal/host"
)

// Window is a scriptable host.Window. Moves and raises are recorded.
type Window struct {
	ID       string
	Name     string
	TitleErr error
	Kind     host.WindowType
	Rect     host.Rect
	Desc     string
	DescErr  error
	XID      uint32
	HasXID   bool
	MoveErr  error
	RaiseErr error

	mu     sync.Mutex
	moves  []host.Rect
	raises int
}

func (w *Window) Key() string { return w.ID }

func (w *Window) Title() (string, error) {
	if w.TitleErr != nil {
		return "", w.TitleErr
	}
	return w.Name, nil
}

func (w *Window) Type() host.WindowType { return w.Kind }

func (w *Window) Frame() host.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Rect
}

func (w *Window) Description() (string, error) {
	if w.DescErr != nil {
		return "", w.DescErr
	}
	return w.Desc, nil
}

func (w *Window) CompositorXID() (uint32, bool) { return w.XID, w.HasXID }

func (w *Window) MoveResizeFrame(_ context.Context, r host.Rect) error {
	if w.MoveErr != nil {
		return w.MoveErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.moves = append(w.moves, r)
	w.Rect = r
	return nil
}

func (w *Window) Raise(context.Context) error {
	if w.RaiseErr != nil {
		return w.RaiseErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.raises++
	return nil
}

// Moves returns every rectangle applied with MoveResizeFrame.
func (w *Window) Moves() []host.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]host.Rect(nil), w.moves...)
}

// Raises returns how often Raise succeeded.
func (w *Window) Raises() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.raises
}

// Lister returns a fixed window list.
type Lister struct {
	Windows []host.Window
	Err     error
	Calls   int
}

func (l *Lister) ListWindows(context.Context) ([]host.Window, error) {
	l.Calls++
	if l.Err != nil {
		return nil, l.Err
	}
	return append([]host.Window(nil), l.Windows...), nil
}

// Windows converts concrete fakes to host windows.
func Windows(ws ...*Window) []host.Window {
	out := make([]host.Window, 0, len(ws))
	for _, w := range ws {
		out = append(out, w)
	}
	return out
}
