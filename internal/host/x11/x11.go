// Package x11 implements host.Lister against a running X server using EWMH.
package x11

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/regenrek/winrestore/internal/host"
)

// ErrInvalidTitle reports a window name that is not valid UTF-8.
var ErrInvalidTitle = errors.New("x11: window title is not valid utf-8")

// Display is a connection to an X server.
type Display struct {
	xu     *xgbutil.XUtil
	logger *slog.Logger
}

// Open connects to the display named by $DISPLAY.
func Open(logger *slog.Logger) (*Display, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Display{xu: xu, logger: logger}, nil
}

// Close releases the X connection.
func (d *Display) Close() error {
	if d == nil || d.xu == nil {
		return nil
	}
	d.xu.Conn().Close()
	return nil
}

// ListWindows returns the managed client windows from _NET_CLIENT_LIST.
func (d *Display) ListWindows(ctx context.Context) ([]host.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := ewmh.ClientListGet(d.xu)
	if err != nil {
		return nil, fmt.Errorf("x11: read _NET_CLIENT_LIST: %w", err)
	}
	out := make([]host.Window, 0, len(ids))
	for _, id := range ids {
		w, err := d.window(id)
		if err != nil {
			d.logger.Debug("x11: skip window", slog.String("xid", strconv.FormatUint(uint64(id), 16)), slog.Any("err", err))
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (d *Display) window(id xproto.Window) (*Window, error) {
	w := &Window{xu: d.xu, id: id}
	w.kind = d.windowType(id)
	geom, err := xwindow.New(d.xu, id).DecorGeometry()
	if err != nil {
		return nil, fmt.Errorf("geometry: %w", err)
	}
	w.frame = host.Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}
	if frame, ok := d.frameOf(id); ok {
		w.frameID = frame
		w.hasFrame = true
	}
	return w, nil
}

func (d *Display) windowType(id xproto.Window) host.WindowType {
	atoms, err := ewmh.WmWindowTypeGet(d.xu, id)
	if err != nil {
		return host.TypeNormal
	}
	return windowTypeFromAtoms(atoms)
}

// frameOf walks up to the direct child of the root, which is the window
// manager's frame when the client is reparented.
func (d *Display) frameOf(id xproto.Window) (xproto.Window, bool) {
	root := d.xu.RootWin()
	cur := id
	for i := 0; i < 16; i++ {
		tree, err := xproto.QueryTree(d.xu.Conn(), cur).Reply()
		if err != nil {
			return 0, false
		}
		if tree.Parent == root || tree.Parent == 0 {
			return cur, true
		}
		cur = tree.Parent
	}
	return 0, false
}

func windowTypeFromAtoms(atoms []string) host.WindowType {
	if len(atoms) == 0 {
		return host.TypeNormal
	}
	switch atoms[0] {
	case "_NET_WM_WINDOW_TYPE_NORMAL":
		return host.TypeNormal
	case "_NET_WM_WINDOW_TYPE_DESKTOP":
		return host.TypeDesktop
	case "_NET_WM_WINDOW_TYPE_DOCK":
		return host.TypeDock
	case "_NET_WM_WINDOW_TYPE_DIALOG":
		return host.TypeDialog
	case "_NET_WM_WINDOW_TYPE_UTILITY", "_NET_WM_WINDOW_TYPE_TOOLBAR", "_NET_WM_WINDOW_TYPE_MENU":
		return host.TypeUtility
	case "_NET_WM_WINDOW_TYPE_SPLASH":
		return host.TypeSplash
	default:
		return host.TypeOther
	}
}

// Window is a managed X11 client window.
type Window struct {
	xu       *xgbutil.XUtil
	id       xproto.Window
	frameID  xproto.Window
	hasFrame bool
	kind     host.WindowType
	frame    host.Rect
}

func (w *Window) Key() string {
	return "x11:" + strconv.FormatUint(uint64(w.id), 16)
}

func (w *Window) Title() (string, error) {
	name, err := ewmh.WmNameGet(w.xu, w.id)
	if err != nil || name == "" {
		name, err = icccm.WmNameGet(w.xu, w.id)
		if err != nil {
			return "", fmt.Errorf("x11: read title of 0x%x: %w", uint32(w.id), err)
		}
	}
	if !utf8.ValidString(name) {
		return "", ErrInvalidTitle
	}
	return name, nil
}

func (w *Window) Type() host.WindowType { return w.kind }

func (w *Window) Frame() host.Rect {
	geom, err := xwindow.New(w.xu, w.id).DecorGeometry()
	if err != nil {
		return w.frame
	}
	return host.Rect{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}
}

// Description mirrors the window manager's debug description: the client
// id followed by a clipped title.
func (w *Window) Description() (string, error) {
	title, err := w.Title()
	if err != nil {
		return "", err
	}
	return describe(uint32(w.id), title), nil
}

func (w *Window) CompositorXID() (uint32, bool) {
	if !w.hasFrame || w.frameID == w.id {
		return 0, false
	}
	return uint32(w.frameID), true
}

func (w *Window) MoveResizeFrame(ctx context.Context, r host.Rect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := xwindow.New(w.xu, w.id).WMMoveResize(r.X, r.Y, r.Width, r.Height); err != nil {
		return fmt.Errorf("x11: move 0x%x: %w", uint32(w.id), err)
	}
	w.frame = r
	return nil
}

func (w *Window) Raise(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ewmh.ActiveWindowReq(w.xu, w.id); err == nil {
		return nil
	}
	target := w.id
	if w.hasFrame {
		target = w.frameID
	}
	err := xproto.ConfigureWindowChecked(w.xu.Conn(), target,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("x11: raise 0x%x: %w", uint32(w.id), err)
	}
	return nil
}

const descriptionTitleRunes = 10

func describe(id uint32, title string) string {
	runes := []rune(title)
	if len(runes) > descriptionTitleRunes {
		runes = runes[:descriptionTitleRunes]
	}
	return fmt.Sprintf("0x%x (%s)", id, string(runes))
}
