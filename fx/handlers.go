package fx

import "slices"

// Effect is one fx an fx handler wants to run, with its payload.
type Effect struct {
	ID      Identifier
	Payload any
}

// Do requests the fx id with payload.
func Do(id Identifier, payload any) Effect {
	return Effect{ID: id, Payload: payload}
}

// Effects is the response of an fx handler. Effects run in the order they
// are listed, except UpdateAppState which always runs first.
type Effects []Effect

// EffectsFromMap builds Effects from a map. Map order is random, so the
// effects are sorted by identifier creation order.
func EffectsFromMap(m map[Identifier]any) Effects {
	effects := make(Effects, 0, len(m))
	for id, payload := range m {
		effects = append(effects, Effect{ID: id, Payload: payload})
	}
	slices.SortFunc(effects, func(a, b Effect) int {
		switch {
		case a.ID.less(b.ID):
			return -1
		case b.ID.less(a.ID):
			return 1
		}
		return 0
	})
	return effects
}

// FxHandlerFn turns a command into the effects to run, given the current
// AppState. It should not have side effects of its own.
type FxHandlerFn func(state AppState, args ...any) (Effects, error)

// RegisterFxHandler registers fn under a fresh identifier.
func (rt *Runtime) RegisterFxHandler(fn FxHandlerFn) Identifier {
	if fn == nil {
		panic("fx: nil fx handler function")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	id := NewIdentifier("fxgraph-effect-handler")
	rt.fxHandlers[id] = fn
	rt.logger.Debug("registered fx handler", "handler", id)
	return id
}

// Dispatch runs the fx handler registered under id with the current AppState
// and args, then executes the effects it returned. UpdateAppState runs first
// so every other effect observes the new snapshot. Effects already executed
// are not undone when a later one fails.
//
// Dispatches are serialized: a handler always sees the snapshot left by the
// previous dispatch. Handlers, fx and observers must therefore not call
// Dispatch themselves; doing so deadlocks.
func (rt *Runtime) Dispatch(id Identifier, args ...any) (err error) {
	rt.dispatchMu.Lock()
	defer rt.dispatchMu.Unlock()

	rt.mu.Lock()
	handler, ok := rt.fxHandlers[id]
	state := rt.appState
	rt.mu.Unlock()

	if !ok {
		return newError(ErrCodeUnknownFxHandler, id, "could not find the effect handler")
	}

	defer finish(rt.hooks.DispatchStarted(id), &err)
	return rt.dispatch(id, handler, state, args)
}

func (rt *Runtime) dispatch(id Identifier, handler FxHandlerFn, state AppState, args []any) error {
	effects, err := handler(state, args...)
	if err != nil {
		return wrapError(ErrCodeHandlerFailed, id, "effect handler failed", err)
	}

	ordered, err := orderEffects(effects)
	if err != nil {
		return err
	}

	rt.logger.Debug("dispatching", "handler", id, "effects", len(ordered))
	for _, effect := range ordered {
		if err := rt.ExecuteFx(effect.ID, effect.Payload); err != nil {
			return err
		}
	}
	return nil
}

// orderEffects validates a handler response and moves UpdateAppState to the
// front, keeping the relative order of everything else.
func orderEffects(effects Effects) (Effects, error) {
	ordered := make(Effects, 0, len(effects))
	seen := make(map[Identifier]struct{}, len(effects))

	for _, effect := range effects {
		if effect.ID.IsZero() {
			return nil, newError(ErrCodeInvalidIdentifier, effect.ID, "effect handler returned the zero identifier")
		}
		if _, ok := seen[effect.ID]; ok {
			return nil, newError(ErrCodeDuplicateEffect, effect.ID, "effect handler requested the same fx twice")
		}
		seen[effect.ID] = struct{}{}

		if effect.ID != UpdateAppState {
			ordered = append(ordered, effect)
			continue
		}
		if _, ok := effect.Payload.(AppState); !ok {
			return nil, newError(ErrCodeInvalidPayload, UpdateAppState, "payload is not an AppState")
		}
		ordered = slices.Insert(ordered, 0, effect)
	}
	return ordered, nil
}
