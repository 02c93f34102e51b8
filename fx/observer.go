package fx

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// Observer is something outside the graph, typically a rendered component,
// that wants to hear about changes of the subscribers it read. Observers are
// kept in sets, so implementations must be comparable (use pointer receivers).
type Observer interface {
	Notify()
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	id   uuid.UUID
	name string
	fn   func()
}

// NewFuncObserver returns an observer that calls fn when notified. The name
// only shows up in String.
func NewFuncObserver(name string, fn func()) *FuncObserver {
	return &FuncObserver{
		id:   uuid.New(),
		name: name,
		fn:   fn,
	}
}

// Notify calls the wrapped function, if any.
func (o *FuncObserver) Notify() {
	if o.fn != nil {
		o.fn()
	}
}

// ID returns the random identity of o.
func (o *FuncObserver) ID() uuid.UUID { return o.id }

func (o *FuncObserver) String() string {
	return o.name + "/" + o.id.String()
}

// CurrentObserver returns the observer that Subscribe currently binds to, or nil.
func (rt *Runtime) CurrentObserver() Observer {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.currentObserver
}

// SetCurrentObserver replaces the current observer slot and returns the
// previous occupant so it can be restored. Passing nil clears the slot.
func (rt *Runtime) SetCurrentObserver(o Observer) (prev Observer) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	prev = rt.currentObserver
	rt.currentObserver = o
	return prev
}

// WithObserver runs fn with o as the current observer, so every Subscribe
// made by fn registers o as interested in the subscriber it reads.
func (rt *Runtime) WithObserver(o Observer, fn func()) {
	prev := rt.SetCurrentObserver(o)
	defer rt.SetCurrentObserver(prev)
	fn()
}

// Observers returns the observers registered for a subscriber.
func (rt *Runtime) Observers(id Identifier) []Observer {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	set, ok := rt.subscriberToObservers[id]
	if !ok {
		return nil
	}
	return set.ToSlice()
}

func (rt *Runtime) addObserver(id Identifier, o Observer) {
	set, ok := rt.subscriberToObservers[id]
	if !ok {
		set = mapset.NewThreadUnsafeSet[Observer]()
		rt.subscriberToObservers[id] = set
	}
	set.Add(o)
}

// notifyList collects observers while the lock is held, each one once, in
// the order they were first seen.
type notifyList struct {
	seen      mapset.Set[Observer]
	observers []Observer
}

func newNotifyList() *notifyList {
	return &notifyList{seen: mapset.NewThreadUnsafeSet[Observer]()}
}

func (n *notifyList) addAll(set mapset.Set[Observer]) {
	if set == nil {
		return
	}
	set.Each(func(o Observer) bool {
		if n.seen.Add(o) {
			n.observers = append(n.observers, o)
		}
		return false
	})
}
