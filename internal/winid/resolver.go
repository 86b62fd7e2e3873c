// Package winid derives stable window identifiers that survive a window
// manager restart.
package winid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/regenrek/winrestore/internal/host"
	"github.com/regenrek/winrestore/internal/logging"
	"github.com/regenrek/winrestore/internal/xtool"
)

// ErrUnresolved is returned when no strategy produced an identifier.
var ErrUnresolved = errors.New("winid: window identifier unresolved")

// ErrUnknownStrategy is returned by ParseStrategies for names it does not know.
var ErrUnknownStrategy = errors.New("winid: unknown strategy")

// Strategy names one step of the resolution cascade.
type Strategy string

const (
	StrategyDescription Strategy = "description"
	StrategyTree        Strategy = "tree"
	StrategyEnumeration Strategy = "enumeration"
)

// DefaultStrategies is the cascade order used when none is configured.
var DefaultStrategies = []Strategy{StrategyDescription, StrategyTree, StrategyEnumeration}

const (
	DefaultMarker   = "_NO_TITLE_BAR_ORIGINAL_STATE"
	netWMName       = "_NET_WM_NAME"
	missLogInterval = 5 * time.Minute
)

// ParseStrategies validates configured strategy names. An empty list yields
// DefaultStrategies; duplicates are dropped.
func ParseStrategies(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return append([]Strategy(nil), DefaultStrategies...), nil
	}
	out := make([]Strategy, 0, len(names))
	seen := make(map[Strategy]struct{}, len(names))
	for _, name := range names {
		s := Strategy(strings.ToLower(strings.TrimSpace(name)))
		switch s {
		case StrategyDescription, StrategyTree, StrategyEnumeration:
		default:
			return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Introspector runs the X11 tools used by the tree and enumeration
// strategies. *xtool.Client implements it.
type Introspector interface {
	Children(ctx context.Context, xid uint32) (string, error)
	ClientList(ctx context.Context) ([]string, error)
	WindowProps(ctx context.Context, id string, props ...string) (string, error)
}

// Options configures a Resolver.
type Options struct {
	Strategies []Strategy
	Marker     string
	Logger     *slog.Logger
}

// Resolver maps window handles to identifiers. Results are cached per
// handle key for the resolver's lifetime; only successes are cached.
type Resolver struct {
	tools      Introspector
	strategies []Strategy
	marker     string
	logger     *slog.Logger
	missLog    *logging.Throttle

	mu    sync.Mutex
	cache map[string]string
}

// New returns a Resolver. tools may be nil, which disables the tree and
// enumeration strategies.
func New(tools Introspector, opts Options) *Resolver {
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	marker := strings.TrimSpace(opts.Marker)
	if marker == "" {
		marker = DefaultMarker
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tools:      tools,
		strategies: append([]Strategy(nil), strategies...),
		marker:     marker,
		logger:     logger,
		missLog:    logging.NewThrottle(missLogInterval),
		cache:      make(map[string]string),
	}
}

// Resolve returns the identifier for w and whether one was found.
func (r *Resolver) Resolve(ctx context.Context, w host.Window) (string, bool) {
	id, err := r.ResolveErr(ctx, w)
	return id, err == nil
}

// ResolveErr is Resolve with the reason for a miss. The error wraps
// ErrUnresolved unless ctx was cancelled.
func (r *Resolver) ResolveErr(ctx context.Context, w host.Window) (string, error) {
	if w == nil {
		return "", ErrUnresolved
	}
	key := w.Key()
	if id, ok := r.Cached(w); ok {
		return id, nil
	}
	var misses []string
	for _, strategy := range r.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := r.try(ctx, strategy, w)
		if err == nil && id != "" {
			r.store(key, id)
			r.logger.Debug("winid: resolved",
				slog.String("key", key),
				slog.String("id", id),
				slog.String("strategy", string(strategy)))
			return id, nil
		}
		if err != nil {
			misses = append(misses, string(strategy)+": "+err.Error())
		}
	}
	title, _ := w.Title()
	r.missLog.Log(ctx, r.logger, key, slog.LevelDebug, "winid: unresolved",
		slog.String("key", key),
		logging.TitleAttr(title),
		slog.String("misses", strings.Join(misses, "; ")))
	return "", ErrUnresolved
}

func (r *Resolver) try(ctx context.Context, strategy Strategy, w host.Window) (string, error) {
	switch strategy {
	case StrategyDescription:
		return fromDescription(w)
	case StrategyTree:
		return r.fromTree(ctx, w)
	case StrategyEnumeration:
		return r.fromEnumeration(ctx, w)
	default:
		return "", fmt.Errorf("unknown strategy %q", strategy)
	}
}

func fromDescription(w host.Window) (string, error) {
	desc, err := w.Description()
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}
	id, ok := xtool.FindHexID(desc)
	if !ok {
		return "", errors.New("no hex id in description")
	}
	return id, nil
}

func (r *Resolver) fromTree(ctx context.Context, w host.Window) (string, error) {
	if r.tools == nil {
		return "", errors.New("no introspection tools")
	}
	xid, ok := w.CompositorXID()
	if !ok {
		return "", errors.New("no compositor id")
	}
	tree, err := r.tools.Children(ctx, xid)
	if err != nil {
		return "", err
	}
	if title, err := w.Title(); err == nil {
		if id, ok := xtool.FindIDForTitle(tree, title); ok {
			return id, nil
		}
	}
	if id, ok := xtool.FirstChild(tree); ok {
		return id, nil
	}
	return "", errors.New("no child in tree")
}

func (r *Resolver) fromEnumeration(ctx context.Context, w host.Window) (string, error) {
	if r.tools == nil {
		return "", errors.New("no introspection tools")
	}
	title, err := w.Title()
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	ids, err := r.tools.ClientList(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		props, err := r.tools.WindowProps(ctx, id, netWMName, r.marker)
		if err != nil {
			continue
		}
		if xtool.HasCardinalProperty(props, r.marker) {
			continue
		}
		if name, ok := xtool.ParseNetWMName(props); ok && name == title {
			return id, nil
		}
	}
	return "", errors.New("no client with matching title")
}

// Cached returns the cached identifier for w, if any.
func (r *Resolver) Cached(w host.Window) (string, bool) {
	if w == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.cache[w.Key()]
	return id, ok
}

// Forget drops the cached identifier for w.
func (r *Resolver) Forget(w host.Window) {
	if w == nil {
		return
	}
	r.mu.Lock()
	delete(r.cache, w.Key())
	r.mu.Unlock()
}

// Reset drops every cached identifier.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

func (r *Resolver) store(key, id string) {
	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
}
