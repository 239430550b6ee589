package domain

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindNotAuthorized
	KindNotFound
	KindDuplicate
	KindServiceUnavailable
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrBadRequest         = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrNotAuthorized      = &Error{Kind: KindNotAuthorized, Message: "not authorized"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicate          = &Error{Kind: KindDuplicate, Message: "duplicate"}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable, Message: "service unavailable"}
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotAuthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func BadRequest(msg string) error { return &Error{Kind: KindBadRequest, Message: msg} }
func NotAuthorized(msg string) error { return &Error{Kind: KindNotAuthorized, Message: msg} }
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }
func Duplicate(msg string) error { return &Error{Kind: KindDuplicate, Message: msg} }
func ServiceUnavailable(msg string, err error) error {
	return &Error{Kind: KindServiceUnavailable, Message: msg, Err: err}
}

// AsError extracts the domain error carried by err, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
