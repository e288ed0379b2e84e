package codec

import (
	"fmt"
)

// Kind the kind of a codec error
type Kind int

const (
	// KindUnsupportedType value matches no wire category
	KindUnsupportedType = Kind(1)
	// KindTruncatedStream the input ended before the value was complete
	KindTruncatedStream = Kind(2)
	// KindUnresolvableTypeAlias type name is absent from registry and alias table
	KindUnresolvableTypeAlias = Kind(3)
	// KindCorruptPayload tag not recognized or body malformed
	KindCorruptPayload = Kind(4)
)

var (
	// ErrUnsupportedType sentinel used with errors.Is
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	// ErrTruncatedStream sentinel used with errors.Is
	ErrTruncatedStream = &Error{Kind: KindTruncatedStream}
	// ErrUnresolvableTypeAlias sentinel used with errors.Is
	ErrUnresolvableTypeAlias = &Error{Kind: KindUnresolvableTypeAlias}
	// ErrCorruptPayload sentinel used with errors.Is
	ErrCorruptPayload = &Error{Kind: KindCorruptPayload}
)

// Error codec error
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func newError(kind Kind, cause error, detail string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Detail: fmt.Sprintf(detail, args...),
		Cause:  cause,
	}
}

// Error error
func (err *Error) Error() string {
	msg := err.Kind.String()
	if err.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, err.Detail)
	}

	if err.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Cause)
	}

	return msg
}

// Is returns true if target is a codec error with the same kind
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

func (k Kind) String() string {
	switch k {
	case KindUnsupportedType:
		return "unsupported type"
	case KindTruncatedStream:
		return "truncated stream"
	case KindUnresolvableTypeAlias:
		return "unresolvable type alias"
	case KindCorruptPayload:
		return "corrupt payload"
	}

	return "unknown codec error"
}
