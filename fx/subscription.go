package fx

import (
	"fmt"
	"reflect"
)

// SubscriptionTag marks values returned by Subscribe.
const SubscriptionTag = "fxgraph_subscription"

// SubscriptionValue wraps a subscriber value so that a render layer can spot
// it among arbitrary props and unwrap it.
type SubscriptionValue struct {
	Value any
}

// FxgraphSubscription returns SubscriptionTag.
func (SubscriptionValue) FxgraphSubscription() string {
	return SubscriptionTag
}

func (v SubscriptionValue) String() string {
	return fmt.Sprint(v.Value)
}

type taggedSubscription interface {
	FxgraphSubscription() string
}

// IsSubscriptionValue reports whether v carries the subscription marker.
func IsSubscriptionValue(v any) bool {
	t, ok := v.(taggedSubscription)
	if !ok || isNilPointer(v) {
		return false
	}
	return t.FxgraphSubscription() == SubscriptionTag
}

// UnwrapSubscriptionValue returns the wrapped value of a subscription value
// and any other value unchanged.
func UnwrapSubscriptionValue(v any) any {
	switch sv := v.(type) {
	case SubscriptionValue:
		return sv.Value
	case *SubscriptionValue:
		if sv != nil {
			return sv.Value
		}
	}
	return v
}

// UnwrapProps replaces every subscription value in props, including the
// ones inside a "children" slice, by its wrapped value. props is not
// modified; a copy is returned.
func UnwrapProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for name, value := range props {
		if children, ok := value.([]any); ok && name == "children" {
			unwrapped := make([]any, len(children))
			for i, child := range children {
				unwrapped[i] = UnwrapSubscriptionValue(child)
			}
			out[name] = unwrapped
			continue
		}
		out[name] = UnwrapSubscriptionValue(value)
	}
	return out
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
