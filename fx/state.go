package fx

import "reflect"

// AppState is a snapshot of the application data. Snapshots are never
// mutated in place: a state update replaces the whole snapshot, so With and
// Without return copies.
type AppState map[any]any

// Get returns the value stored under key.
func (s AppState) Get(key any) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// With returns a new snapshot with key set to value.
func (s AppState) With(key, value any) AppState {
	next := make(AppState, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	next[key] = value
	return next
}

// Without returns a new snapshot without key.
func (s AppState) Without(key any) AppState {
	next := make(AppState, len(s))
	for k, v := range s {
		if k != key {
			next[k] = v
		}
	}
	return next
}

// SameSnapshot reports whether a and b are the very same snapshot, not merely
// equal contents.
func SameSnapshot(a, b AppState) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
