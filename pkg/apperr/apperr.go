// Package apperr defines the error kinds returned by the economy engine and
// the caller-visible category each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindAlreadyOwned          Kind = "ALREADY_OWNED"
	KindInsufficientFunds     Kind = "INSUFFICIENT_FUNDS"
	KindInvalidTransaction    Kind = "INVALID_TRANSACTION"
	KindInvalidPropertyAction Kind = "INVALID_PROPERTY_ACTION"
	KindInvalidSessionAction  Kind = "INVALID_SESSION_ACTION"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindConflict              Kind = "RESOURCE_CONFLICT"
	KindInternal              Kind = "INTERNAL"
)

// Entities named by NotFound errors.
const (
	EntityPlayer    = "player"
	EntityProperty  = "property"
	EntitySession   = "session"
	EntityOwnership = "ownership"
)

// Error is the typed failure returned at every operation boundary.
type Error struct {
	Kind    Kind
	Entity  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind, and on entity when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Entity == "" || t.Entity == e.Entity
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrPlayerNotFound        = &Error{Kind: KindNotFound, Entity: EntityPlayer}
	ErrPropertyNotFound      = &Error{Kind: KindNotFound, Entity: EntityProperty}
	ErrSessionNotFound       = &Error{Kind: KindNotFound, Entity: EntitySession}
	ErrOwnershipNotFound     = &Error{Kind: KindNotFound, Entity: EntityOwnership}
	ErrAlreadyOwned          = &Error{Kind: KindAlreadyOwned}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds}
	ErrInvalidTransaction    = &Error{Kind: KindInvalidTransaction}
	ErrInvalidPropertyAction = &Error{Kind: KindInvalidPropertyAction}
	ErrInvalidSessionAction  = &Error{Kind: KindInvalidSessionAction}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrInternal              = &Error{Kind: KindInternal}
)

func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func AlreadyOwned(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAlreadyOwned, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFunds(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransaction(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransaction, Message: fmt.Sprintf(format, args...)}
}

func InvalidPropertyAction(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidPropertyAction, Message: fmt.Sprintf(format, args...)}
}

func InvalidSessionAction(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidSessionAction, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Conflict(cause error) *Error {
	return &Error{Kind: KindConflict, Message: "concurrent modification detected, retry the operation", Cause: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Cause: cause}
}

// KindOf reports the kind of err, INTERNAL for foreign errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP category.
func Status(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyOwned, KindInsufficientFunds, KindInvalidTransaction,
		KindInvalidPropertyAction, KindInvalidSessionAction:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-visible message. Internal details stay in logs.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
