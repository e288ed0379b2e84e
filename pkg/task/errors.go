package task

import (
	"errors"
	"fmt"

	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/infinivision/gridcore/pkg/meta"
)

// Kind the kind of a dispatch error
type Kind int

const (
	// KindPartitionUnavailable partition ownership did not settle in the retries
	KindPartitionUnavailable = Kind(1)
	// KindPermissionDenied the caller has not the required permission
	KindPermissionDenied = Kind(2)
	// KindTargetNotFound no task registered for the message type
	KindTargetNotFound = Kind(3)
	// KindTaskFailure application level failure
	KindTaskFailure = Kind(4)
	// KindTimeout the task is not completed in time
	KindTimeout = Kind(5)
)

var (
	// ErrPartitionUnavailable sentinel used with errors.Is
	ErrPartitionUnavailable = &DispatchError{Kind: KindPartitionUnavailable}
	// ErrPermissionDenied sentinel used with errors.Is
	ErrPermissionDenied = &DispatchError{Kind: KindPermissionDenied}
	// ErrTargetNotFound sentinel used with errors.Is
	ErrTargetNotFound = &DispatchError{Kind: KindTargetNotFound}
	// ErrTaskFailure sentinel used with errors.Is
	ErrTaskFailure = &DispatchError{Kind: KindTaskFailure}
	// ErrTimeout sentinel used with errors.Is
	ErrTimeout = &DispatchError{Kind: KindTimeout}
)

// DispatchError dispatch error
type DispatchError struct {
	Kind   Kind
	Detail string
	Cause  error
}

func newDispatchError(kind Kind, cause error, detail string, args ...interface{}) *DispatchError {
	return &DispatchError{
		Kind:   kind,
		Detail: fmt.Sprintf(detail, args...),
		Cause:  cause,
	}
}

// Error error
func (err *DispatchError) Error() string {
	var kind string
	switch err.Kind {
	case KindPartitionUnavailable:
		kind = "partition unavailable"
	case KindPermissionDenied:
		kind = "permission denied"
	case KindTargetNotFound:
		kind = "target not found"
	case KindTaskFailure:
		kind = "task failure"
	case KindTimeout:
		kind = "timeout"
	default:
		kind = "unknown dispatch error"
	}

	if err.Detail != "" {
		kind = fmt.Sprintf("%s: %s", kind, err.Detail)
	}

	if err.Cause != nil {
		return fmt.Sprintf("%s: %v", kind, err.Cause)
	}

	return kind
}

// Is returns true if target is a dispatch error with the same kind
func (err *DispatchError) Is(target error) bool {
	if value, ok := target.(*DispatchError); ok {
		return value.Kind == err.Kind
	}

	return false
}

// Unwrap returns the cause
func (err *DispatchError) Unwrap() error {
	return err.Cause
}

// errorCode maps a error to the wire error code
func errorCode(err error) *meta.Error {
	var value *DispatchError
	if errors.As(err, &value) {
		switch value.Kind {
		case KindPartitionUnavailable:
			return meta.ErrPartitionUnavailable
		case KindPermissionDenied:
			return meta.ErrPermissionDenied
		case KindTargetNotFound:
			return meta.ErrTargetNotFound
		case KindTimeout:
			return meta.ErrTimeout
		case KindTaskFailure:
			var codecErr *codec.Error
			if errors.As(value.Cause, &codecErr) {
				return meta.ErrCodec
			}
			return meta.ErrTaskFailure
		}
	}

	var codecErr *codec.Error
	if errors.As(err, &codecErr) {
		return meta.ErrCodec
	}

	return meta.ErrTaskFailure
}
