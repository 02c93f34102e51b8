package fx

import "fmt"

// Hooks observe what the runtime does. Implementations live in the metrics
// and tracing packages; the runtime calls them synchronously, so they should
// be quick.
type Hooks interface {
	// DispatchStarted is called before a handler runs. The returned function
	// is called once the dispatch finished, with its error if any.
	DispatchStarted(handler Identifier) func(err error)

	// FxStarted is called before an fx runs, the returned function after.
	FxStarted(fx Identifier) func(err error)

	// SubscriberComputed is called after a subscriber function was evaluated.
	SubscriberComputed(id Identifier, root bool)

	// SubscriberInvalidated is called when a subscriber is marked outdated.
	SubscriberInvalidated(id Identifier)
}

// NopHooks ignores everything.
type NopHooks struct{}

func (NopHooks) DispatchStarted(Identifier) func(error) { return func(error) {} }
func (NopHooks) FxStarted(Identifier) func(error)       { return func(error) {} }
func (NopHooks) SubscriberComputed(Identifier, bool)    {}
func (NopHooks) SubscriberInvalidated(Identifier)       {}

// finish reports the outcome of a hooked call to done. A panic is reported
// as an error and then resumed.
func finish(done func(error), err *error) {
	if r := recover(); r != nil {
		done(fmt.Errorf("panic: %v", r))
		panic(r)
	}
	done(*err)
}

type multiHooks []Hooks

// MultiHooks fans every call out to all of hooks, in order.
func MultiHooks(hooks ...Hooks) Hooks {
	return multiHooks(hooks)
}

func (m multiHooks) DispatchStarted(handler Identifier) func(error) {
	dones := make([]func(error), len(m))
	for i, h := range m {
		dones[i] = h.DispatchStarted(handler)
	}
	return func(err error) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](err)
		}
	}
}

func (m multiHooks) FxStarted(fx Identifier) func(error) {
	dones := make([]func(error), len(m))
	for i, h := range m {
		dones[i] = h.FxStarted(fx)
	}
	return func(err error) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](err)
		}
	}
}

func (m multiHooks) SubscriberComputed(id Identifier, root bool) {
	for _, h := range m {
		h.SubscriberComputed(id, root)
	}
}

func (m multiHooks) SubscriberInvalidated(id Identifier) {
	for _, h := range m {
		h.SubscriberInvalidated(id)
	}
}
