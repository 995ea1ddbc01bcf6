// Package apperr classifies failures so that handlers can map them onto
// HTTP status codes without string matching.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConnection:
		return "connection"
	default:
		return "internal"
	}
}

// Error carries a Kind, a client-safe message and the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, err error) error { return &Error{Kind: KindValidation, Msg: msg, Err: err} }
func NotFound(msg string, err error) error   { return &Error{Kind: KindNotFound, Msg: msg, Err: err} }
func Conflict(msg string, err error) error   { return &Error{Kind: KindConflict, Msg: msg, Err: err} }
func Connection(msg string, err error) error { return &Error{Kind: KindConnection, Msg: msg, Err: err} }
func Internal(msg string, err error) error   { return &Error{Kind: KindInternal, Msg: msg, Err: err} }

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-safe message of err. Causes are never included.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "Internal server error"
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
