package apperrors

import (
	"errors"
	"strings"
)

type appError struct {
	msg        string
	base       error   // parent, used by errors.Is / errors.As
	wrapped    []error // additional causes
	statuscode int
	retryable  bool
}

func (e *appError) Error() string {
	return e.msg
}

// ErrorAll returns the message followed by the messages of wrapped errors that
// are not the parent itself.
func (e *appError) ErrorAll() string {
	var b strings.Builder
	b.WriteString(e.msg)
	for _, err := range e.wrapped {
		if err == e.base {
			continue
		}
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.base
}

func (e *appError) UnwrapAll() []error {
	return e.wrapped
}

// child returns a new error parented on e. Status code and retryable flag are
// inherited.
func (e *appError) child(msg string, wrapped []error) *appError {
	return &appError{
		msg:        msg,
		base:       e,
		wrapped:    wrapped,
		statuscode: e.statuscode,
		retryable:  e.retryable,
	}
}

func (e *appError) New(msg string) Error {
	return e.child(msg, nil)
}

func (e *appError) Msg(msg string) Error {
	return e.child(msg, append([]error{e}, e.wrapped...))
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return e.child(msg, append([]error{e}, nonNil(errs)...))
}

func (e *appError) Err(errs ...error) Error {
	return e.child(e.msg, append([]error{e}, nonNil(errs)...))
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statuscode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statuscode
}

func (e *appError) SetRetryable(retryable bool) Error {
	cp := *e
	cp.retryable = retryable
	return &cp
}

func (e *appError) Retryable() bool {
	return e.retryable
}

// Is matches target against the parent chain and every wrapped error.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if e == target {
		return true
	}
	if e.base != nil && errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.wrapped {
		if err != e.base && errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As lets errors.As reach into wrapped errors that are not on the parent chain.
func (e *appError) As(target any) bool {
	for _, err := range e.wrapped {
		if err != e.base && errors.As(err, target) {
			return true
		}
	}
	return false
}

func nonNil(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// New creates a root error with the given message.
func New(msg string) Error {
	return &appError{msg: msg}
}
