// Package apperr defines the typed error taxonomy used across the
// fingerprinting core, and wraps causes with a stack trace via
// github.com/mdobak/go-xerrors. Error() returns the message and the cause
// text; the trace stays on the wrapped cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mdobak/go-xerrors"
)

// Kind classifies an error for callers that need to branch on it
// (e.g. the matcher treats NotFound differently from Storage).
type Kind int

const (
	// Unknown is the zero value; never returned by this package's
	// constructors, only seen if an error wasn't produced through them.
	Unknown Kind = iota
	InvalidInput
	DSPFailure
	AlreadyExists
	NotFound
	Storage
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case DSPFailure:
		return "dsp_failure"
	case AlreadyExists:
		return "already_exists"
	case NotFound:
		return "not_found"
	case Storage:
		return "storage"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a typed, stack-trace-carrying error. The Cause, when set, is
// accessible via errors.Unwrap so errors.Is/As keep working against it.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a typed error with an attached stack trace.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg, Cause: xerrors.New(msg)}
}

// Wrap attaches a kind and a stack trace to an existing cause.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, Msg: msg, Cause: xerrors.New(cause)}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or Unknown if err wasn't built here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// HTTPStatus maps a Kind to the status code the HTTP transport should
// respond with for an error of that kind.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidInput:
		return http.StatusBadRequest
	case AlreadyExists:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Cancelled:
		return 499 // client closed request, nginx convention
	case DSPFailure, Storage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
