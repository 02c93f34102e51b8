package fx

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// Lookup failures.
	ErrCodeUnknownSubscriber ErrorCode = "UNKNOWN_SUBSCRIBER"
	ErrCodeUnknownFx         ErrorCode = "UNKNOWN_FX"
	ErrCodeUnknownFxHandler  ErrorCode = "UNKNOWN_FX_HANDLER"

	// Usage-contract violations.
	ErrCodeDuplicateDependency ErrorCode = "DUPLICATE_DEPENDENCY"
	ErrCodeUnknownDependency   ErrorCode = "UNKNOWN_DEPENDENCY"
	ErrCodeMissingDependencies ErrorCode = "MISSING_DEPENDENCIES"
	ErrCodeDependencyCycle     ErrorCode = "DEPENDENCY_CYCLE"
	ErrCodeDuplicateEffect     ErrorCode = "DUPLICATE_EFFECT"
	ErrCodeInvalidIdentifier   ErrorCode = "INVALID_IDENTIFIER"
	ErrCodeInvalidPayload      ErrorCode = "INVALID_PAYLOAD"
	ErrCodeTypeMismatch        ErrorCode = "TYPE_MISMATCH"

	// Failures raised by user code.
	ErrCodeFxFailed      ErrorCode = "FX_FAILED"
	ErrCodeHandlerFailed ErrorCode = "HANDLER_FAILED"
	ErrCodeCircularValue ErrorCode = "CIRCULAR_VALUE"
)

// RuntimeError is returned by every failing runtime operation.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID is the identifier the operation was working on, if any.
	ID Identifier

	// Err is the underlying cause, if any.
	Err error
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if !e.ID.IsZero() {
		msg += fmt.Sprintf(" (id=%s)", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, id Identifier, msg string) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, ID: id}
}

func wrapError(code ErrorCode, id Identifier, msg string, err error) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, ID: id, Err: err}
}

// Code returns the code of the outermost RuntimeError in err's chain, or "".
func Code(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// HasCode reports whether any RuntimeError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var re *RuntimeError
		if !errors.As(err, &re) {
			return false
		}
		if re.Code == code {
			return true
		}
		err = re.Err
	}
	return false
}

// IsLookupError reports whether err was caused by an unknown identifier.
func IsLookupError(err error) bool {
	return HasCode(err, ErrCodeUnknownSubscriber) ||
		HasCode(err, ErrCodeUnknownFx) ||
		HasCode(err, ErrCodeUnknownFxHandler)
}

// IsUsageError reports whether err is a programming error at the call site.
func IsUsageError(err error) bool {
	for _, code := range []ErrorCode{
		ErrCodeDuplicateDependency,
		ErrCodeUnknownDependency,
		ErrCodeMissingDependencies,
		ErrCodeDependencyCycle,
		ErrCodeDuplicateEffect,
		ErrCodeInvalidIdentifier,
		ErrCodeInvalidPayload,
		ErrCodeTypeMismatch,
	} {
		if HasCode(err, code) {
			return true
		}
	}
	return false
}
