// Package fx is a reactive computation layer over a single application state.
//
// Derived values are declared as subscribers: root subscribers read the
// AppState, derived subscribers read the values of other subscribers. Values
// are computed lazily on Subscribe and cached until an ancestor actually
// changes. State transitions are described by fx handlers which return the
// effects to run; the UpdateAppState effect always runs first so that every
// other effect observes the new snapshot.
package fx

import (
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Runtime holds the process state: the current AppState, the subscriber
// arena, the fx and fx handler registries and the subscriber to observer
// index.
//
// All of it is guarded by one mutex. Subscriber functions run while it is
// held and must not call back into the Runtime; fx handlers, fx and observer
// notifications run without it. A second mutex serializes dispatches so two
// commands never build on the same snapshot.
type Runtime struct {
	mu sync.Mutex

	// dispatchMu serializes Dispatch, from reading the snapshot to the last
	// effect.
	dispatchMu sync.Mutex

	appState AppState

	subscribers map[Identifier]*subscriber
	order       []Identifier
	children    map[Identifier][]Identifier

	fxs        map[Identifier]FxFn
	fxHandlers map[Identifier]FxHandlerFn

	subscriberToObservers map[Identifier]mapset.Set[Observer]
	currentObserver       Observer

	logger            *slog.Logger
	hooks             Hooks
	strictEquivalence bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithAppState sets the initial snapshot. Defaults to an empty AppState.
func WithAppState(state AppState) Option {
	return func(rt *Runtime) {
		rt.appState = state
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithHooks sets the instrumentation hooks. Defaults to NopHooks.
func WithHooks(hooks Hooks) Option {
	return func(rt *Runtime) {
		rt.hooks = hooks
	}
}

// WithCoreFx registers fn under id at construction time.
func WithCoreFx(id Identifier, fn FxFn) Option {
	return func(rt *Runtime) {
		rt.fxs[id] = fn
	}
}

// WithFxHandler registers a handler under id at construction time.
func WithFxHandler(id Identifier, fn FxHandlerFn) Option {
	return func(rt *Runtime) {
		rt.fxHandlers[id] = fn
	}
}

// WithStrictEquivalence controls what a state update does when a root
// subscriber produces a circular value. Strict (the default) fails the
// update; otherwise the root is logged and treated as changed.
func WithStrictEquivalence(strict bool) Option {
	return func(rt *Runtime) {
		rt.strictEquivalence = strict
	}
}

// New installs the initial AppState and empty registries and registers the
// UpdateAppState fx. It has to be called before anything else.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		appState:              AppState{},
		subscribers:           map[Identifier]*subscriber{},
		children:              map[Identifier][]Identifier{},
		fxs:                   map[Identifier]FxFn{},
		fxHandlers:            map[Identifier]FxHandlerFn{},
		subscriberToObservers: map[Identifier]mapset.Set[Observer]{},
		logger:                slog.Default(),
		hooks:                 NopHooks{},
		strictEquivalence:     true,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.appState == nil {
		rt.appState = AppState{}
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	if rt.hooks == nil {
		rt.hooks = NopHooks{}
	}
	rt.logger = rt.logger.With("component", "fxgraph")

	rt.fxs[UpdateAppState] = rt.updateAppState

	return rt
}

// AppState returns the current snapshot. Callers must not mutate it.
func (rt *Runtime) AppState() AppState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.appState
}
