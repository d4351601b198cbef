// Package apperrors provides chainable application errors. An error can be
// derived from a parent sentinel, wrap foreign errors, carry an HTTP status
// code, and be marked retryable so callers running a retry loop can decide
// whether another attempt makes sense.
package apperrors

import "errors"

// Error defines the interface for application errors. All derivation methods
// return a new Error and leave the receiver untouched, so package-level
// sentinels can be shared safely.
type Error interface {
	error
	Unwrap() error // support for errors.Is / errors.As

	New(msg string) Error                  // derives a child error with a new message
	Msg(msg string) Error                  // new message, wraps the receiver
	MsgErr(msg string, err ...error) Error // new message, wraps the receiver and errs
	Err(err ...error) Error                // same message, wraps errs
	SetStatusCode(int) Error               // attaches an HTTP status code
	StatusCode() int                       // returns the status code, 0 if unset
	SetRetryable(bool) Error               // marks the error as transient
	Retryable() bool                       // reports whether a retry may succeed
	ErrorAll() string                      // message followed by wrapped error messages
	UnwrapAll() []error                    // all wrapped errors in insertion order
}

// IsRetryable reports whether err, or any application error in its chain, is
// marked retryable.
func IsRetryable(err error) bool {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}

// StatusCodeOf returns the status code carried by the first application error
// in err's chain, or 0.
func StatusCodeOf(err error) int {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return 0
}
