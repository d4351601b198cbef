package pipedrive

import (
	"fmt"
	"strings"

	"github.com/tansive/tansive-pipedrive/internal/common/apperrors"
	"github.com/tidwall/gjson"
)

// Error definitions for the package.
// All errors are derived from ErrPipedrive.
var (
	// ErrPipedrive is the base error for the package.
	ErrPipedrive = apperrors.New("pipedrive error")

	// ErrConfiguration is returned when a required input such as the API token
	// is missing or invalid. It is detected before any network call.
	ErrConfiguration = ErrPipedrive.New("invalid configuration")

	// ErrTransport is returned for I/O failures that did not produce an HTTP
	// status: DNS, connection reset, timeouts. It is retried within the
	// attempt budget.
	ErrTransport = ErrPipedrive.New("transport error").SetRetryable(true)

	// ErrRemoteRequestFailed is returned when the API answered with a status
	// outside [200,300). Use errors.As with *RemoteError to get the status
	// code and body.
	ErrRemoteRequestFailed = ErrPipedrive.New("pipedrive API request failed")

	// ErrDecodeFailed is returned when a 2xx body is not a valid envelope.
	ErrDecodeFailed = ErrPipedrive.New("unable to decode response")

	// ErrRequestCanceled is returned when the caller's context ends while a
	// request is in flight or waiting to be retried.
	ErrRequestCanceled = ErrPipedrive.New("request canceled")

	// ErrApplication is returned by callers that received an envelope with
	// success set to false.
	ErrApplication = ErrPipedrive.New("pipedrive API reported failure")

	// errRetryableStatus marks a discarded 429/5xx response inside the retry
	// loop. It never leaves the transport.
	errRetryableStatus = ErrPipedrive.New("retryable status").SetRetryable(true)
)

// RemoteError is returned when the Pipedrive API responds with a non-2xx
// status after retries are exhausted, or with a status that is not retried.
type RemoteError struct {
	StatusCode int    // HTTP status code of the last attempt
	Body       string // raw response body of the last attempt
}

// Error implements the error interface. The format matches what operators
// see in logs: status code followed by the raw body.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("pipedrive API request failed: %d - %s", e.StatusCode, e.Body)
}

// Unwrap makes errors.Is(err, ErrRemoteRequestFailed) hold.
func (e *RemoteError) Unwrap() error {
	return ErrRemoteRequestFailed
}

// Message returns the human readable reason from the body when the API sent
// an error envelope, else the raw body.
func (e *RemoteError) Message() string {
	if gjson.Valid(e.Body) {
		res := gjson.GetMany(e.Body, "error", "error_info")
		var parts []string
		for _, r := range res {
			if s := r.String(); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ": ")
		}
	}
	return e.Body
}
