package dispatch

import (
	"errors"
	"fmt"
)

// Kind is the category of a dispatch error. The set is closed.
type Kind int

const (
	// KindGeneric is the catch-all for conditions not otherwise classified
	KindGeneric Kind = iota
	// KindTransportFailure wraps a network, DNS, TLS or timeout error from the transport
	KindTransportFailure
	// KindInvalidMethod means the method is not GET or POST
	KindInvalidMethod
	// KindOperationCancelled is reserved for user-triggered cancellation.
	// The dispatch path never produces it.
	KindOperationCancelled
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "Generic"
	case KindTransportFailure:
		return "TransportFailure"
	case KindInvalidMethod:
		return "InvalidMethod"
	case KindOperationCancelled:
		return "OperationCancelled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the only error type returned by the dispatcher
type Error struct {
	Kind    Kind
	Message string // for Generic and OperationCancelled
	Err     error  // for TransportFailure
}

// ErrInvalidMethod is returned for any method outside {GET, POST}
var ErrInvalidMethod = &Error{Kind: KindInvalidMethod}

// Error renders the message the host sees at the Run boundary
func (e *Error) Error() string {
	switch e.Kind {
	case KindGeneric:
		return "Generic error: " + e.Message
	case KindTransportFailure:
		if e.Err == nil {
			return "transport failure"
		}
		return e.Err.Error()
	case KindInvalidMethod:
		return "Invalid method"
	case KindOperationCancelled:
		return "Operation Canceled error: " + e.Message
	default:
		return e.Message
	}
}

// Unwrap returns the underlying transport error, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrInvalidMethod)
// holds for any invalid method error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t == ErrInvalidMethod && e.Kind == KindInvalidMethod
}

// NewGeneric creates a catch-all error
func NewGeneric(message string) *Error {
	return &Error{Kind: KindGeneric, Message: message}
}

// NewTransportFailure wraps a transport error
func NewTransportFailure(err error) *Error {
	return &Error{Kind: KindTransportFailure, Err: err}
}

// NewOperationCancelled creates a cancellation error
func NewOperationCancelled(message string) *Error {
	return &Error{Kind: KindOperationCancelled, Message: message}
}

// KindOf returns the kind of err, or KindGeneric if err is not a dispatch error
func KindOf(err error) Kind {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Kind
	}
	return KindGeneric
}

// IsGeneric checks if an error is a generic dispatch error
func IsGeneric(err error) bool {
	return isKind(err, KindGeneric)
}

// IsTransportFailure checks if an error is a transport failure
func IsTransportFailure(err error) bool {
	return isKind(err, KindTransportFailure)
}

// IsInvalidMethod checks if an error is an invalid method error
func IsInvalidMethod(err error) bool {
	return isKind(err, KindInvalidMethod)
}

// IsOperationCancelled checks if an error is a cancellation error
func IsOperationCancelled(err error) bool {
	return isKind(err, KindOperationCancelled)
}

func isKind(err error, k Kind) bool {
	var dErr *Error
	return errors.As(err, &dErr) && dErr.Kind == k
}
