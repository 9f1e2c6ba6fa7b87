package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindPermissionDenied      ErrorKind = "PERMISSION_DENIED"
	KindOperationNotPermitted ErrorKind = "OPERATION_NOT_PERMITTED"
	KindInvalidArgument       ErrorKind = "INVALID_ARGUMENT"
	KindUnauthenticated       ErrorKind = "UNAUTHENTICATED"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "not found"}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrOperationNotPermitted = &Error{Kind: KindOperationNotPermitted, Message: "operation not permitted"}
	ErrInvalidArgument       = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrUnauthenticated       = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
)

// Error is a client facing failure with a stable kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorKind lets packages below domain classify the error without importing it.
func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func OperationNotPermitted(format string, args ...any) error {
	return &Error{Kind: KindOperationNotPermitted, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" for infrastructure errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Lending rule messages. Callers match on the kind, the text is for humans.
const (
	MsgNotBorrowable    = "book cannot be borrowed: archived or not shareable"
	MsgOwnBook          = "cannot borrow your own book"
	MsgAlreadyBorrowed  = "already borrowed"
	MsgReturnOwnBook    = "cannot return your own book"
	MsgNotBorrowed      = "you did not borrow this book"
	MsgNotOwnerApproval = "only the book owner can approve a return"
	MsgNotReturned      = "not returned yet, cannot approve"
	MsgForeignBookFlag  = "cannot modify another user's book flag"
	MsgOwnBookFeedback  = "cannot give feedback to your own book"
)
