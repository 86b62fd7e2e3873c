package winstate

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/host/hosttest"
	"github.com/regenrek/winrestore/internal/settings"
	"github.com/regenrek/winrestore/internal/winid"
)

// keyResolver resolves windows from a fixed key->id table.
type keyResolver struct {
	ids   map[string]string
	calls int
}

func (r *keyResolver) Resolve(_ context.Context, w host.Window) (string, bool) {
	r.calls++
	id, ok := r.ids[w.Key()]
	return id, ok
}

func newTestStore(t *testing.T, resolver Resolver, raise bool) (*Store, *settings.Memory) {
	t.Helper()
	mem := settings.NewMemory()
	return NewStore(mem, resolver, Options{Raise: raise}), mem
}

func TestRoundTripRestoresEveryWindow(t *testing.T) {
	ctx := context.Background()
	a := &hosttest.Window{ID: "ka", Rect: host.Rect{X: 0, Y: 0, Width: 800, Height: 600}}
	b := &hosttest.Window{ID: "kb", Rect: host.Rect{X: 100, Y: 100, Width: 400, Height: 300}}
	c := &hosttest.Window{ID: "kc", Rect: host.Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}}
	resolver := &keyResolver{ids: map[string]string{"ka": "A", "kb": "B", "kc": "C"}}
	store, _ := newTestStore(t, resolver, true)

	saved, err := store.Save(ctx, hosttest.Windows(a, b, c))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("saved %d records", len(saved))
	}

	// After the restart the same windows come back in reverse order with
	// fresh geometry.
	a2 := &hosttest.Window{ID: "ka"}
	b2 := &hosttest.Window{ID: "kb"}
	c2 := &hosttest.Window{ID: "kc"}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	report, err := store.Restore(ctx, state, hosttest.Windows(c2, b2, a2))
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if report != (Report{Records: 3, Matched: 3}) {
		t.Fatalf("report = %+v", report)
	}
	for _, tc := range []struct {
		w    *hosttest.Window
		want host.Rect
	}{
		{a2, host.Rect{X: 0, Y: 0, Width: 800, Height: 600}},
		{b2, host.Rect{X: 100, Y: 100, Width: 400, Height: 300}},
		{c2, host.Rect{X: -1920, Y: 0, Width: 1920, Height: 1080}},
	} {
		if got := tc.w.Moves(); !reflect.DeepEqual(got, []host.Rect{tc.want}) {
			t.Fatalf("%s moves = %v, want [%v]", tc.w.ID, got, tc.want)
		}
		if tc.w.Raises() != 1 {
			t.Fatalf("%s raises = %d", tc.w.ID, tc.w.Raises())
		}
	}
}

func TestSaveExcludesDesktop(t *testing.T) {
	ctx := context.Background()
	resolver := &keyResolver{ids: map[string]string{"a": "0x1", "desk": "0x2", "b": "0x3"}}
	store, mem := newTestStore(t, resolver, false)
	windows := hosttest.Windows(
		&hosttest.Window{ID: "a", Rect: host.Rect{Width: 10, Height: 10}},
		&hosttest.Window{ID: "desk", Kind: host.TypeDesktop},
		&hosttest.Window{ID: "b", Kind: host.TypeDialog},
		&hosttest.Window{ID: "unresolved"},
	)
	state, err := store.Save(ctx, windows)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if len(state) != 3 {
		t.Fatalf("records = %d, want 3 non-desktop windows", len(state))
	}
	raw, ok, _ := mem.Get(ctx, DefaultKey)
	if !ok {
		t.Fatalf("expected value under %q", DefaultKey)
	}
	want := `[{"id":"0x1","x":0,"y":0,"width":10,"height":10},` +
		`{"id":"0x3","x":0,"y":0,"width":0,"height":0},` +
		`{"id":null,"x":0,"y":0,"width":0,"height":0}]`
	if raw != want {
		t.Fatalf("persisted = %s\nwant        %s", raw, want)
	}
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	ctx := context.Background()
	resolver := &keyResolver{ids: map[string]string{"a": "A", "b": "B"}}
	store, _ := newTestStore(t, resolver, false)
	if _, err := store.Save(ctx, hosttest.Windows(&hosttest.Window{ID: "a"}, &hosttest.Window{ID: "b"})); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := store.Save(ctx, hosttest.Windows(&hosttest.Window{ID: "b"})); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	state, _ := store.Load(ctx)
	if len(state) != 1 || state[0].ID != "B" {
		t.Fatalf("state = %+v", state)
	}
}

func TestLoadNeverWritten(t *testing.T) {
	store, _ := newTestStore(t, &keyResolver{}, false)
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(state) != 0 {
		t.Fatalf("state = %+v, want empty", state)
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", "", `{"id":"0x1"}`, `[{"id":1}]`} {
		store, mem := newTestStore(t, &keyResolver{}, false)
		_ = mem.Set(ctx, DefaultKey, raw)
		if _, err := store.Load(ctx); !errors.Is(err, ErrCorruptState) {
			t.Fatalf("Load(%q) err = %v, want ErrCorruptState", raw, err)
		}
	}
}

func TestRestoreUnmatchedIsNoop(t *testing.T) {
	w := &hosttest.Window{ID: "live", Rect: host.Rect{X: 5, Y: 5, Width: 50, Height: 50}}
	store, _ := newTestStore(t, &keyResolver{ids: map[string]string{"live": "0xlive"}}, true)
	state := State{{ID: "0xgone", X: 1, Y: 2, Width: 3, Height: 4}, {ID: "", X: 9}}
	report, err := store.Restore(context.Background(), state, hosttest.Windows(w))
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if report != (Report{Records: 2, Skipped: 2}) {
		t.Fatalf("report = %+v", report)
	}
	if len(w.Moves()) != 0 || w.Raises() != 0 {
		t.Fatalf("window was altered")
	}
}

func TestRestoreEmptyIDNeverMatchesUnresolvedWindow(t *testing.T) {
	w := &hosttest.Window{ID: "unresolved"}
	store, _ := newTestStore(t, &keyResolver{}, false)
	report, _ := store.Restore(context.Background(), State{{ID: "", Width: 10}}, hosttest.Windows(w))
	if report.Matched != 0 || len(w.Moves()) != 0 {
		t.Fatalf("empty id matched: %+v", report)
	}
}

func TestRestoreSkipsDesktopAndFirstMatchWins(t *testing.T) {
	desk := &hosttest.Window{ID: "desk", Kind: host.TypeDesktop}
	first := &hosttest.Window{ID: "first"}
	second := &hosttest.Window{ID: "second"}
	resolver := &keyResolver{ids: map[string]string{"desk": "X", "first": "X", "second": "X"}}
	store, _ := newTestStore(t, resolver, false)
	report, err := store.Restore(context.Background(), State{{ID: "X", Width: 7, Height: 7}}, hosttest.Windows(desk, first, second))
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if report.Matched != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(desk.Moves()) != 0 || len(second.Moves()) != 0 || len(first.Moves()) != 1 {
		t.Fatalf("wrong window moved")
	}
	if first.Raises() != 0 {
		t.Fatalf("raise disabled but window raised")
	}
}

func TestRestoreCountsFailuresAndContinues(t *testing.T) {
	broken := &hosttest.Window{ID: "broken", MoveErr: errors.New("BadWindow")}
	sticky := &hosttest.Window{ID: "sticky", RaiseErr: errors.New("denied")}
	ok := &hosttest.Window{ID: "ok"}
	resolver := &keyResolver{ids: map[string]string{"broken": "1", "sticky": "2", "ok": "3"}}
	store, _ := newTestStore(t, resolver, true)
	state := State{{ID: "1"}, {ID: "2", Width: 2}, {ID: "3", Width: 3}}
	report, err := store.Restore(context.Background(), state, hosttest.Windows(broken, sticky, ok))
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if report != (Report{Records: 3, Matched: 3, Failed: 2}) {
		t.Fatalf("report = %+v", report)
	}
	if len(sticky.Moves()) != 1 || len(ok.Moves()) != 1 {
		t.Fatalf("expected later windows moved")
	}
}

func TestRestoreResolvesEachLiveWindowOnce(t *testing.T) {
	resolver := &keyResolver{ids: map[string]string{"a": "A", "b": "B"}}
	store, _ := newTestStore(t, resolver, false)
	state := State{{ID: "B"}, {ID: "missing"}, {ID: "A"}}
	if _, err := store.Restore(context.Background(), state, hosttest.Windows(&hosttest.Window{ID: "a"}, &hosttest.Window{ID: "b"})); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if resolver.calls != 2 {
		t.Fatalf("resolver calls = %d, want 2", resolver.calls)
	}
}

func TestRestoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store, _ := newTestStore(t, &keyResolver{}, false)
	if _, err := store.Restore(ctx, State{{ID: "A"}}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadAndRestore(t *testing.T) {
	ctx := context.Background()
	w := &hosttest.Window{ID: "a"}
	resolver := winid.New(nil, winid.Options{})
	store, _ := newTestStore(t, resolver, false)

	lister := &hosttest.Lister{Windows: hosttest.Windows(w)}
	report, err := store.LoadAndRestore(ctx, lister)
	if err != nil || report != (Report{}) {
		t.Fatalf("empty LoadAndRestore() = %+v, %v", report, err)
	}
	if lister.Calls != 0 {
		t.Fatalf("listed windows without saved state")
	}

	w.Desc = "0x2a0000a (Terminal)"
	if err := store.Write(ctx, State{{ID: "0x2a0000a", X: 4, Y: 5, Width: 6, Height: 7}}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	report, err = store.LoadAndRestore(ctx, lister)
	if err != nil {
		t.Fatalf("LoadAndRestore() error: %v", err)
	}
	if report.Matched != 1 || !reflect.DeepEqual(w.Moves(), []host.Rect{{X: 4, Y: 5, Width: 6, Height: 7}}) {
		t.Fatalf("report = %+v moves = %v", report, w.Moves())
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if state, _ := store.Load(ctx); len(state) != 0 {
		t.Fatalf("state after Clear = %+v", state)
	}
}
