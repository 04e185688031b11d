package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures the way the portal's data layer reports
// them to users.
type Kind string

const (
	KindNotFound         Kind = "not-found"
	KindAlreadyExists    Kind = "already-exists"
	KindPermissionDenied Kind = "permission-denied"
	KindUnavailable      Kind = "unavailable"
	KindUnknown          Kind = "unknown"
)

// Error carries a failure kind and a Hebrew user-facing message alongside the
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string // user-facing, Hebrew
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a service error, or KindUnknown for anything
// else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// UserMessage returns the Hebrew message of a service error, or a generic
// fallback.
func UserMessage(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "אירעה שגיאה בלתי צפויה"
}

func notFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func alreadyExists(msg string, err error) *Error {
	return &Error{Kind: KindAlreadyExists, Message: msg, Err: err}
}

func unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// Validation sentinels; the API layer maps these to bad-request responses.
var (
	ErrPastDate       = errors.New("date is in the past")
	ErrTooFarAhead    = errors.New("date is beyond the booking horizon")
	ErrSlotMisaligned = errors.New("times do not match a bookable slot")
)
