package xa

import (
	"errors"
	"fmt"
)

// XA return codes
const (
	// XAOK normal execution
	XAOK = 0
	// XARDOnly the branch was read-only and has been committed
	XARDOnly = 3

	// XAHeurMix the branch has been heuristically committed and rolled back
	XAHeurMix = 5
	// XAHeurRB the branch has been heuristically rolled back
	XAHeurRB = 6
	// XAHeurCom the branch has been heuristically committed
	XAHeurCom = 7
	// XAHeurHaz the branch may have been heuristically completed
	XAHeurHaz = 8

	// XARBRollback rollback for an unspecified reason
	XARBRollback = 100
	// XARBCommFail rollback caused by a communication failure
	XARBCommFail = 101
	// XARBDeadlock rollback caused by a deadlock
	XARBDeadlock = 102
	// XARBIntegrity rollback caused by a integrity violation
	XARBIntegrity = 103
	// XARBOther rollback for a reason not listed
	XARBOther = 104
	// XARBProto rollback caused by a protocol error
	XARBProto = 105
	// XARBTimeout rollback caused by the transaction timeout
	XARBTimeout = 106
	// XARBTransient rollback caused by a transient failure, may retry
	XARBTransient = 107

	// XAERAsync asynchronous operation already outstanding
	XAERAsync = -2
	// XAERRMErr a resource manager error occurred
	XAERRMErr = -3
	// XAERNotA the xid is not valid
	XAERNotA = -4
	// XAERInval invalid arguments were given
	XAERInval = -5
	// XAERProto routine invoked in an improper context
	XAERProto = -6
	// XAERRMFail resource manager unavailable
	XAERRMFail = -7
	// XAERDupID the xid already exists
	XAERDupID = -8
	// XAEROutside work is being done outside the global transaction
	XAEROutside = -9
)

var (
	// ErrNotA sentinel used with errors.Is
	ErrNotA = &Error{Code: XAERNotA}
	// ErrDupID sentinel used with errors.Is
	ErrDupID = &Error{Code: XAERDupID}
	// ErrProto sentinel used with errors.Is
	ErrProto = &Error{Code: XAERProto}
	// ErrInval sentinel used with errors.Is
	ErrInval = &Error{Code: XAERInval}
	// ErrRMErr sentinel used with errors.Is
	ErrRMErr = &Error{Code: XAERRMErr}
	// ErrOutside sentinel used with errors.Is
	ErrOutside = &Error{Code: XAEROutside}
	// ErrRBTimeout sentinel used with errors.Is
	ErrRBTimeout = &Error{Code: XARBTimeout}
	// ErrRBRollback sentinel used with errors.Is
	ErrRBRollback = &Error{Code: XARBRollback}

	// ErrManualLifecycleForbidden the transaction context of a xa branch is
	// completed by the transaction manager only
	ErrManualLifecycleForbidden = errors.New("transaction lifecycle is managed by the xa resource")
	// ErrKeyLocked the key is written by another branch
	ErrKeyLocked = errors.New("key is locked by another transaction")
)

// Error xa error
type Error struct {
	Code   int
	Detail string
	Cause  error
}

func newError(code int, cause error, detail string, args ...interface{}) *Error {
	return &Error{
		Code:   code,
		Detail: fmt.Sprintf(detail, args...),
		Cause:  cause,
	}
}

// Error error
func (err *Error) Error() string {
	msg := fmt.Sprintf("xa error %s(%d)", codeName(err.Code), err.Code)
	if err.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, err.Detail)
	}

	if err.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Cause)
	}

	return msg
}

// Is returns true if target is a xa error with the same code
func (err *Error) Is(target error) bool {
	if value, ok := target.(*Error); ok {
		return value.Code == err.Code
	}

	return false
}

// Unwrap returns the cause
func (err *Error) Unwrap() error {
	return err.Cause
}

// CodeOf returns the xa code of the error, XAOK for nil
func CodeOf(err error) int {
	if err == nil {
		return XAOK
	}

	var value *Error
	if errors.As(err, &value) {
		return value.Code
	}

	return XAERRMErr
}

// IsRollback returns true if the error reports the branch was rolled back
func IsRollback(err error) bool {
	code := CodeOf(err)
	return code >= XARBRollback && code <= XARBTransient
}

// IsTimeout returns true if the branch was rolled back by the timeout
func IsTimeout(err error) bool {
	return CodeOf(err) == XARBTimeout
}

func codeName(code int) string {
	switch code {
	case XAOK:
		return "XA_OK"
	case XARDOnly:
		return "XA_RDONLY"
	case XAHeurMix:
		return "XA_HEURMIX"
	case XAHeurRB:
		return "XA_HEURRB"
	case XAHeurCom:
		return "XA_HEURCOM"
	case XAHeurHaz:
		return "XA_HEURHAZ"
	case XARBRollback:
		return "XA_RBROLLBACK"
	case XARBCommFail:
		return "XA_RBCOMMFAIL"
	case XARBDeadlock:
		return "XA_RBDEADLOCK"
	case XARBIntegrity:
		return "XA_RBINTEGRITY"
	case XARBOther:
		return "XA_RBOTHER"
	case XARBProto:
		return "XA_RBPROTO"
	case XARBTimeout:
		return "XA_RBTIMEOUT"
	case XARBTransient:
		return "XA_RBTRANSIENT"
	case XAERAsync:
		return "XAER_ASYNC"
	case XAERRMErr:
		return "XAER_RMERR"
	case XAERNotA:
		return "XAER_NOTA"
	case XAERInval:
		return "XAER_INVAL"
	case XAERProto:
		return "XAER_PROTO"
	case XAERRMFail:
		return "XAER_RMFAIL"
	case XAERDupID:
		return "XAER_DUPID"
	case XAEROutside:
		return "XAER_OUTSIDE"
	}

	return "UNKNOWN"
}
