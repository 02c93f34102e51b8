package fx

import "slices"

// RootFn computes a root subscriber value from the whole AppState.
type RootFn func(state AppState, args ...any) any

// DerivedFn computes a subscriber value from the values of its dependencies,
// passed in the order they were declared.
type DerivedFn func(deps []any, args ...any) any

type subscriber struct {
	id        Identifier
	dependsOn []Identifier
	rootFn    RootFn
	derivedFn DerivedFn

	value      any
	hasValue   bool
	isOutdated bool
}

func (s *subscriber) isRoot() bool {
	return len(s.dependsOn) == 0
}

// SubscriberInfo is a read-only snapshot of a subscriber.
type SubscriberInfo struct {
	ID         Identifier
	DependsOn  []Identifier
	Value      any
	HasValue   bool
	IsOutdated bool
}

func (s *subscriber) info() SubscriberInfo {
	return SubscriberInfo{
		ID:         s.id,
		DependsOn:  slices.Clone(s.dependsOn),
		Value:      s.value,
		HasValue:   s.hasValue,
		IsOutdated: s.isOutdated,
	}
}

// RegisterRoot registers a subscriber computed from the whole AppState.
func (rt *Runtime) RegisterRoot(fn RootFn) Identifier {
	if fn == nil {
		panic("fx: nil root subscriber function")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	id := NewIdentifier("fxgraph-subscriber")
	rt.addSubscriber(&subscriber{
		id:         id,
		rootFn:     fn,
		isOutdated: true,
	})
	rt.logger.Debug("registered root subscriber", "subscriber", id)
	return id
}

// RegisterDerived registers a subscriber computed from the values of deps.
// Every dependency must already be registered and may appear only once, so
// the dependency graph can never contain a cycle.
func (rt *Runtime) RegisterDerived(deps []Identifier, fn DerivedFn) (Identifier, error) {
	if fn == nil {
		panic("fx: nil derived subscriber function")
	}
	if len(deps) == 0 {
		return Identifier{}, newError(ErrCodeMissingDependencies, Identifier{}, "a derived subscriber needs at least one dependency, use RegisterRoot instead")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	seen := make(map[Identifier]struct{}, len(deps))
	for _, dep := range deps {
		if _, ok := seen[dep]; ok {
			return Identifier{}, newError(ErrCodeDuplicateDependency, dep, "a subscriber can not depend multiple times on the same subscriber")
		}
		seen[dep] = struct{}{}
		if _, ok := rt.subscribers[dep]; !ok {
			return Identifier{}, newError(ErrCodeUnknownDependency, dep, "could not find the dependency")
		}
	}

	id := NewIdentifier("fxgraph-subscriber")
	rt.addSubscriber(&subscriber{
		id:         id,
		dependsOn:  slices.Clone(deps),
		derivedFn:  fn,
		isOutdated: true,
	})
	rt.logger.Debug("registered derived subscriber", "subscriber", id, "deps", len(deps))
	return id, nil
}

// MustRegisterDerived is like RegisterDerived but panics on error.
func (rt *Runtime) MustRegisterDerived(deps []Identifier, fn DerivedFn) Identifier {
	id, err := rt.RegisterDerived(deps, fn)
	if err != nil {
		panic(err)
	}
	return id
}

func (rt *Runtime) addSubscriber(sub *subscriber) {
	rt.subscribers[sub.id] = sub
	rt.order = append(rt.order, sub.id)
	for _, dep := range sub.dependsOn {
		rt.children[dep] = append(rt.children[dep], sub.id)
	}
}

// Subscriber returns a snapshot of the subscriber registered under id.
func (rt *Runtime) Subscriber(id Identifier) (SubscriberInfo, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sub, ok := rt.subscribers[id]
	if !ok {
		return SubscriberInfo{}, false
	}
	return sub.info(), true
}

// RootSubscribers returns the subscribers without dependencies, in
// registration order.
func (rt *Runtime) RootSubscribers() []Identifier {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return ids(rt.rootSubscribers())
}

// DirectChildren returns the subscribers that depend directly on id.
func (rt *Runtime) DirectChildren(id Identifier) []Identifier {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sub, ok := rt.subscribers[id]
	if !ok {
		return nil
	}
	return ids(rt.directChildren(sub))
}

// AllChildren returns every transitive dependent of the given subscribers.
func (rt *Runtime) AllChildren(of ...Identifier) []Identifier {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	subs := make([]*subscriber, 0, len(of))
	for _, id := range of {
		if sub, ok := rt.subscribers[id]; ok {
			subs = append(subs, sub)
		}
	}
	return ids(rt.allChildren(subs))
}

// AllDependencies returns every transitive dependency of the given
// subscribers, ordered so that a subscriber always comes after its own
// dependencies.
func (rt *Runtime) AllDependencies(of ...Identifier) ([]Identifier, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	subs := make([]*subscriber, 0, len(of))
	for _, id := range of {
		sub, ok := rt.subscribers[id]
		if !ok {
			return nil, newError(ErrCodeUnknownSubscriber, id, "could not find the related subscriber")
		}
		subs = append(subs, sub)
	}
	deps, err := rt.allDependencies(subs)
	if err != nil {
		return nil, err
	}
	return ids(deps), nil
}

// Subscribe returns the value of the subscriber registered under id,
// computing it (and any outdated ancestor) only if it is outdated. The
// current observer, if any, is registered as interested in the subscriber.
func (rt *Runtime) Subscribe(id Identifier, args ...any) (SubscriptionValue, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	sub, ok := rt.subscribers[id]
	if !ok {
		return SubscriptionValue{}, newError(ErrCodeUnknownSubscriber, id, "could not find the related subscriber")
	}

	if rt.currentObserver != nil {
		rt.addObserver(id, rt.currentObserver)
	} else {
		rt.logger.Debug("subscribe called outside a reactive context", "subscriber", id)
	}

	if !sub.isOutdated {
		return SubscriptionValue{Value: sub.value}, nil
	}

	value, err := rt.computeSubscriberValue(sub, args...)
	if err != nil {
		return SubscriptionValue{}, err
	}
	return SubscriptionValue{Value: value}, nil
}

func (rt *Runtime) rootSubscribers() []*subscriber {
	var roots []*subscriber
	for _, id := range rt.order {
		if sub := rt.subscribers[id]; sub.isRoot() {
			roots = append(roots, sub)
		}
	}
	return roots
}

func (rt *Runtime) directChildren(sub *subscriber) []*subscriber {
	childIDs := rt.children[sub.id]
	children := make([]*subscriber, len(childIDs))
	for i, id := range childIDs {
		children[i] = rt.subscribers[id]
	}
	return children
}

// allChildren walks down from subs. Shared descendants are returned once.
func (rt *Runtime) allChildren(subs []*subscriber) []*subscriber {
	var (
		all   []*subscriber
		seen  = map[Identifier]struct{}{}
		queue = slices.Clone(subs)
	)
	for len(queue) > 0 {
		sub := queue[0]
		queue = queue[1:]
		for _, child := range rt.directChildren(sub) {
			if _, ok := seen[child.id]; ok {
				continue
			}
			seen[child.id] = struct{}{}
			all = append(all, child)
			queue = append(queue, child)
		}
	}
	return all
}

// allDependencies returns the ancestors of subs from the roots down, each
// once. The given subscribers are only included when one is an ancestor of
// another.
func (rt *Runtime) allDependencies(subs []*subscriber) ([]*subscriber, error) {
	const (
		visiting = iota + 1
		expanded
		done
	)
	var (
		ordered []*subscriber
		marks   = map[Identifier]int{}
		visit   func(sub *subscriber) error
	)

	expand := func(sub *subscriber) error {
		for _, depID := range sub.dependsOn {
			dep, ok := rt.subscribers[depID]
			if !ok {
				return newError(ErrCodeUnknownDependency, depID, "could not resolve the dependency of "+sub.id.String())
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}

	visit = func(sub *subscriber) error {
		switch marks[sub.id] {
		case done:
			return nil
		case visiting:
			return newError(ErrCodeDependencyCycle, sub.id, "subscriber transitively depends on itself")
		case expanded:
			marks[sub.id] = done
			ordered = append(ordered, sub)
			return nil
		}
		marks[sub.id] = visiting
		if err := expand(sub); err != nil {
			return err
		}
		marks[sub.id] = done
		ordered = append(ordered, sub)
		return nil
	}

	for _, sub := range subs {
		if marks[sub.id] != 0 {
			continue
		}
		marks[sub.id] = visiting
		if err := expand(sub); err != nil {
			return nil, err
		}
		if marks[sub.id] == visiting {
			marks[sub.id] = expanded
		}
	}
	return ordered, nil
}

// computeSubscriberValue brings every outdated ancestor of sub up to date,
// oldest first, then evaluates sub itself.
func (rt *Runtime) computeSubscriberValue(sub *subscriber, args ...any) (any, error) {
	ancestors, err := rt.allDependencies([]*subscriber{sub})
	if err != nil {
		return nil, err
	}
	for _, ancestor := range ancestors {
		if ancestor.isOutdated {
			rt.evaluate(ancestor)
		}
	}
	return rt.evaluate(sub, args...), nil
}

func (rt *Runtime) evaluate(sub *subscriber, args ...any) any {
	var value any
	if sub.isRoot() {
		value = sub.rootFn(rt.appState, args...)
	} else {
		deps := make([]any, len(sub.dependsOn))
		for i, id := range sub.dependsOn {
			deps[i] = rt.subscribers[id].value
		}
		value = sub.derivedFn(deps, args...)
	}

	sub.value = value
	sub.hasValue = true
	sub.isOutdated = false
	rt.hooks.SubscriberComputed(sub.id, sub.isRoot())
	return value
}

func ids(subs []*subscriber) []Identifier {
	out := make([]Identifier, len(subs))
	for i, sub := range subs {
		out[i] = sub.id
	}
	return out
}
