package llm

import (
	"errors"
	"fmt"
)

// InvocationError reports a failed remote completion call: timeout, quota,
// unknown model, rejected prompt. It is never retried by this package; the
// caller decides what to do with it.
type InvocationError struct {
	Provider string
	Model    string

	HTTPStatus int
	Message    string

	Cause error
}

func (e *InvocationError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: invocation failed (status %d): %s", e.Provider, e.HTTPStatus, msg)
	}
	return fmt.Sprintf("%s: invocation failed: %s", e.Provider, msg)
}

func (e *InvocationError) Unwrap() error { return e.Cause }

// DecodeError reports a completion payload that could not be parsed as the
// structured data the caller expected.
type DecodeError struct {
	Provider string
	Payload  string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed completion payload: %v", e.Provider, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// AsInvocationError unwraps err as an *InvocationError.
func AsInvocationError(err error) (*InvocationError, bool) {
	var e *InvocationError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// AsDecodeError unwraps err as a *DecodeError.
func AsDecodeError(err error) (*DecodeError, bool) {
	var e *DecodeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
