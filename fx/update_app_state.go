package fx

import (
	"errors"

	"github.com/delaneyj/fxgraph/equiv"
)

// UpdateAppState is the core fx replacing the AppState. Its payload must be
// the new AppState. Dispatch always runs it before any other effect.
var UpdateAppState = CoreIdentifier("fxgraph/fx/updateAppState")

func (rt *Runtime) updateAppState(args ...any) error {
	if len(args) != 1 {
		return newError(ErrCodeInvalidPayload, UpdateAppState, "expects exactly one AppState argument")
	}
	newState, ok := args[0].(AppState)
	if !ok {
		return newError(ErrCodeInvalidPayload, UpdateAppState, "payload is not an AppState")
	}

	observers, err := rt.applyAppState(newState)
	if err != nil {
		return err
	}
	for _, o := range observers {
		o.Notify()
	}
	return nil
}

// applyAppState recomputes every root subscriber against newState. Roots
// whose value changed invalidate their whole descendant closure; descendants
// of unchanged roots keep their cached value. Nothing is mutated unless every
// root could be compared. The observers to notify are returned so the caller
// can notify them once the lock is released.
func (rt *Runtime) applyAppState(newState AppState) ([]Observer, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if SameSnapshot(rt.appState, newState) {
		rt.logger.Warn(`"updateAppState" has been called without any modification, this is a bad smell and could lead to performance issues`)
	}

	var (
		roots    = rt.rootSubscribers()
		values   = make([]any, len(roots))
		frontier []*subscriber
		notify   = newNotifyList()
	)

	for i, root := range roots {
		value := root.rootFn(newState)
		values[i] = value

		same, err := equiv.Equivalent(root.value, value)
		if err != nil {
			if !errors.Is(err, equiv.ErrCircularValue) || rt.strictEquivalence {
				return nil, wrapError(ErrCodeCircularValue, root.id, "could not compare root subscriber values", err)
			}
			rt.logger.Warn("root subscriber produced a circular value, treating it as changed", "subscriber", root.id, "error", err)
			same = false
		}
		if same {
			continue
		}

		frontier = append(frontier, rt.directChildren(root)...)
		notify.addAll(rt.subscriberToObservers[root.id])
	}

	for i, root := range roots {
		root.value = values[i]
		root.hasValue = true
		root.isOutdated = false
		rt.hooks.SubscriberComputed(root.id, true)
	}

	outdated := append(frontier, rt.allChildren(frontier)...)
	for _, sub := range outdated {
		if !sub.isOutdated {
			rt.hooks.SubscriberInvalidated(sub.id)
		}
		sub.isOutdated = true
		sub.value = nil
		sub.hasValue = false
		notify.addAll(rt.subscriberToObservers[sub.id])
	}

	rt.appState = newState
	return notify.observers, nil
}
