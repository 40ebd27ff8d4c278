// Package engine holds the error taxonomy and small concurrency helpers shared
// across the capture, encoding, and streaming packages.
package engine

import (
	"errors"
	"fmt"
)

// Kind is a closed set of error categories. Callers should branch on Kind,
// never on the formatted message.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindUnsupported     Kind = "unsupported"
	KindBackend         Kind = "backend"
	KindTimeout         Kind = "timeout"
	KindClosed          Kind = "closed"
	KindStopped         Kind = "stopped"
	KindAlreadyStarted  Kind = "already_started"
	KindAlreadyStopped  Kind = "already_stopped"
	KindAlreadyClosed   Kind = "already_closed"
	KindPoisonedLock    Kind = "poisoned_lock"
)

// Error wraps a Kind with a message and an optional underlying cause.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's category.
func (e *Error) Kind() Kind { return e.kind }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func InvalidArgumentf(format string, args ...any) *Error {
	return newErr(KindInvalidArgument, format, args...)
}

func NotFoundf(format string, args ...any) *Error { return newErr(KindNotFound, format, args...) }

func Unsupportedf(format string, args ...any) *Error {
	return newErr(KindUnsupported, format, args...)
}

func Backendf(format string, args ...any) *Error { return newErr(KindBackend, format, args...) }

func Timeoutf(format string, args ...any) *Error { return newErr(KindTimeout, format, args...) }

func Closedf(format string, args ...any) *Error { return newErr(KindClosed, format, args...) }

func Stoppedf(format string, args ...any) *Error { return newErr(KindStopped, format, args...) }

func AlreadyStartedf(format string, args ...any) *Error {
	return newErr(KindAlreadyStarted, format, args...)
}

func AlreadyStoppedf(format string, args ...any) *Error {
	return newErr(KindAlreadyStopped, format, args...)
}

func AlreadyClosedf(format string, args ...any) *Error {
	return newErr(KindAlreadyClosed, format, args...)
}

func PoisonedLockf(format string, args ...any) *Error {
	return newErr(KindPoisonedLock, format, args...)
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.kind == kind {
			return true
		}
		err = e.err
	}
	return false
}
