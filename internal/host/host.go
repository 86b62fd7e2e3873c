// Package host describes the windowing system seen by the resolver and the
// state store. Implementations live in subpackages.
package host

import (
	"context"
	"fmt"
	"strings"
)

// WindowType classifies a window the way the window manager does.
type WindowType int

const (
	TypeNormal WindowType = iota
	TypeDesktop
	TypeDock
	TypeDialog
	TypeUtility
	TypeSplash
	TypeOther
)

var typeNames = map[WindowType]string{
	TypeNormal:  "normal",
	TypeDesktop: "desktop",
	TypeDock:    "dock",
	TypeDialog:  "dialog",
	TypeUtility: "utility",
	TypeSplash:  "splash",
	TypeOther:   "other",
}

func (t WindowType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("WindowType(%d)", int(t))
}

// Rect is a frame rectangle in root coordinates. X and Y may be negative on
// multi-monitor layouts.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}

// Window is a live window handle.
type Window interface {
	// Key is unique for the lifetime of the handle.
	Key() string
	// Title fails when the title cannot be decoded.
	Title() (string, error)
	Type() WindowType
	Frame() Rect
	// Description returns "" when the host has none.
	Description() (string, error)
	// CompositorXID reports the raw id of the window's frame surface.
	CompositorXID() (uint32, bool)
	MoveResizeFrame(ctx context.Context, r Rect) error
	Raise(ctx context.Context) error
}

// Lister enumerates live windows in stacking or creation order.
type Lister interface {
	ListWindows(ctx context.Context) ([]Window, error)
}

// IsDesktop reports whether w is the desktop background window.
func IsDesktop(w Window) bool {
	return w != nil && w.Type() == TypeDesktop
}

// WithoutDesktop returns the windows that are not desktop windows, keeping
// their order.
func WithoutDesktop(windows []Window) []Window {
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w == nil || IsDesktop(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ParseWindowType maps a case-insensitive type name back to a WindowType.
func ParseWindowType(name string) (WindowType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return TypeOther, false
}
