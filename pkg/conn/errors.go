package conn

import (
	"fmt"
)

// Kind the kind of a connection error
type Kind int

const (
	// KindConnectTimeout connect is not completed in time
	KindConnectTimeout = Kind(1)
	// KindHandshakeFailure dial or socket configuration failed
	KindHandshakeFailure = Kind(2)
	// KindAlreadyClosed the connection is closed
	KindAlreadyClosed = Kind(3)
)

var (
	// ErrConnectTimeout sentinel used with errors.Is
	ErrConnectTimeout = &Error{Kind: KindConnectTimeout}
	// ErrHandshakeFailure sentinel used with errors.Is
	ErrHandshakeFailure = &Error{Kind: KindHandshakeFailure}
	// ErrAlreadyClosed sentinel used with errors.Is
	ErrAlreadyClosed = &Error{Kind: KindAlreadyClosed}
)

// Error connection error
type Error struct {
	Kind  Kind
	Addr  string
	Cause error
}

// Error error
func (err *Error) Error() string {
	var kind string
	switch err.Kind {
	case KindConnectTimeout:
		kind = "connect timeout"
	case KindHandshakeFailure:
		kind = "handshake failure"
	case KindAlreadyClosed:
		kind = "already closed"
	default:
		kind = "unknown"
	}

	if err.Cause != nil {
		return fmt.Sprintf("connection %s %s: %v", err.Addr, kind, err.Cause)
	}

	return fmt.Sprintf("connection %s %s", err.Addr, kind)
}

// Is returns true if target is a connection error with the same kind
func (err *Error) Is(target error) bool {
	if value, ok := target.(*Error); ok {
		return value.Kind == err.Kind
	}

	return false
}

// Unwrap returns the cause
func (err *Error) Unwrap() error {
	return err.Cause
}
