package meta

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknown Unknown err
	ErrUnknown = newError(0)
	// ErrCodec request or response can not be decoded or encoded
	ErrCodec = newError(1)
	// ErrPartitionUnavailable partition owner changed and the retries are exhausted
	ErrPartitionUnavailable = newError(2)
	// ErrPermissionDenied the caller has not the required permission
	ErrPermissionDenied = newError(3)
	// ErrTargetNotFound no task for the message type
	ErrTargetNotFound = newError(4)
	// ErrTaskFailure application level failure
	ErrTaskFailure = newError(5)
	// ErrTimeout the task is not completed in time
	ErrTimeout = newError(6)

	// ErrClosed errors the session is closed
	ErrClosed = errors.New("session is closed")
)

// Error a coded error returned to the client
type Error struct {
	Code uint16
}

func newError(code uint16) *Error {
	return &Error{
		Code: code,
	}
}

// NewErrorFrom return err
func NewErrorFrom(code uint16) *Error {
	switch code {
	case ErrUnknown.Code:
		return ErrUnknown
	case ErrCodec.Code:
		return ErrCodec
	case ErrPartitionUnavailable.Code:
		return ErrPartitionUnavailable
	case ErrPermissionDenied.Code:
		return ErrPermissionDenied
	case ErrTargetNotFound.Code:
		return ErrTargetNotFound
	case ErrTaskFailure.Code:
		return ErrTaskFailure
	case ErrTimeout.Code:
		return ErrTimeout
	default:
		return ErrUnknown
	}
}

// Error error
func (err *Error) Error() string {
	return fmt.Sprintf("error code: %d", err.Code)
}

// ErrorResponse the structured error response body
type ErrorResponse struct {
	Code    uint16
	Message string
}

// Err returns the coded error with message, errors.Is matches the coded error
func (rsp *ErrorResponse) Err() error {
	return fmt.Errorf("%w: %s", NewErrorFrom(rsp.Code), rsp.Message)
}

// Is returns true if the response carries the coded error
func (rsp *ErrorResponse) Is(err *Error) bool {
	return rsp.Code == err.Code
}
