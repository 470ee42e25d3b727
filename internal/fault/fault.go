// Package fault defines the error taxonomy shared across the services.
// Every mutating operation fails with a distinguishable kind so the API
// layer can map it to an accurate response.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks malformed input; surfaced immediately, never retried.
	KindValidation
	// KindAuthorization marks an actor that is not the required party.
	KindAuthorization
	// KindPrecondition marks a job not in the required status, including lost
	// races on conditional updates. A normal rejection, not a crash.
	KindPrecondition
	// KindNotFound marks a missing job or referenced user.
	KindNotFound
	// KindExternal marks an upstream fetch failure (GitHub).
	KindExternal
	// KindSchedulerItem marks a failure processing one job in a batch; logged
	// and isolated, never aborts the batch.
	KindSchedulerItem
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external"
	case KindSchedulerItem:
		return "scheduler_item"
	}
	return "unknown"
}

// Error carries a kind alongside the message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

func Precondition(format string, args ...any) *Error {
	return newf(KindPrecondition, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// External wraps an upstream error so callers can recover locally.
func External(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// SchedulerItem wraps a per-item batch failure.
func SchedulerItem(err error, format string, args ...any) *Error {
	return &Error{Kind: KindSchedulerItem, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, unwrapping as needed, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
