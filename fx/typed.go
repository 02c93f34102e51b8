package fx

import "fmt"

//go:generate go run ../cmd/codegen --count 4 --out typed_gen.go

// Root registers a typed root subscriber.
func Root[R any](rt *Runtime, fn func(state AppState) R) Identifier {
	return rt.RegisterRoot(func(state AppState, _ ...any) any {
		return fn(state)
	})
}

// SubscribeAs subscribes to id and asserts the value to T. An absent value
// yields the zero T.
func SubscribeAs[T any](rt *Runtime, id Identifier, args ...any) (T, error) {
	var zero T
	sv, err := rt.Subscribe(id, args...)
	if err != nil {
		return zero, err
	}
	if sv.Value == nil {
		return zero, nil
	}
	v, ok := sv.Value.(T)
	if !ok {
		return zero, newError(ErrCodeTypeMismatch, id, fmt.Sprintf("value is %T, not %T", sv.Value, zero))
	}
	return v, nil
}

// RegisterFxOf registers an fx taking a single typed payload.
func RegisterFxOf[T any](rt *Runtime, fn func(payload T) error) Identifier {
	return rt.RegisterFx(func(args ...any) error {
		payload, err := payloadAs[T](args)
		if err != nil {
			return err
		}
		return fn(payload)
	})
}

// RegisterFxHandlerOf registers an fx handler taking a single typed argument.
func RegisterFxHandlerOf[T any](rt *Runtime, fn func(state AppState, arg T) (Effects, error)) Identifier {
	return rt.RegisterFxHandler(func(state AppState, args ...any) (Effects, error) {
		arg, err := payloadAs[T](args)
		if err != nil {
			return nil, err
		}
		return fn(state, arg)
	})
}

func payloadAs[T any](args []any) (T, error) {
	var zero T
	if len(args) != 1 {
		return zero, newError(ErrCodeInvalidPayload, Identifier{}, fmt.Sprintf("expected 1 argument, got %d", len(args)))
	}
	if args[0] == nil {
		return zero, nil
	}
	v, ok := args[0].(T)
	if !ok {
		return zero, newError(ErrCodeTypeMismatch, Identifier{}, fmt.Sprintf("argument is %T, not %T", args[0], zero))
	}
	return v, nil
}

// as is used by the generated helpers; a wrong type is a programming error.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
