package fx

// FxFn is an impure function run by identifier. Returning an error aborts
// the ExecuteFx or Dispatch that ran it.
type FxFn func(args ...any) error

// RegisterFx registers fn under a fresh identifier, private to the caller.
// Identifiers are unique so an fx can never be overridden.
func (rt *Runtime) RegisterFx(fn FxFn) Identifier {
	if fn == nil {
		panic("fx: nil fx function")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	id := NewIdentifier("fxgraph-side-effect")
	rt.fxs[id] = fn
	rt.logger.Debug("registered fx", "fx", id)
	return id
}

// RegisterCoreFx registers fn under a caller supplied identifier. This is
// meant for fx shared between call sites; registering an identifier again
// replaces the previous function.
func (rt *Runtime) RegisterCoreFx(id Identifier, fn FxFn) error {
	if id.IsZero() {
		return newError(ErrCodeInvalidIdentifier, id, "can not register an fx under the zero identifier")
	}
	if fn == nil {
		panic("fx: nil fx function")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.fxs[id] = fn
	rt.logger.Debug("registered core fx", "fx", id)
	return nil
}

// ExecuteFx runs the fx registered under id with args.
func (rt *Runtime) ExecuteFx(id Identifier, args ...any) (err error) {
	rt.mu.Lock()
	fn, ok := rt.fxs[id]
	rt.mu.Unlock()

	if !ok {
		return newError(ErrCodeUnknownFx, id, "could not find the side-effect")
	}

	defer finish(rt.hooks.FxStarted(id), &err)
	if err := fn(args...); err != nil {
		return wrapError(ErrCodeFxFailed, id, "side-effect failed", err)
	}
	return nil
}
