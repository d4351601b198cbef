package pipedrive

import (
	"bytes"

	"github.com/tansive/tansive-pipedrive/pkg/types"
)

// Envelope is the wrapper every Pipedrive v2 response body uses. Data holds
// the payload decoded into the caller's type. Error and ErrorInfo may be null
// even when Success is false.
type Envelope[T any] struct {
	Success        bool                 `json:"success"`
	Data           T                    `json:"data"`
	Error          types.NullableString `json:"error"`
	ErrorInfo      types.NullableString `json:"error_info"`
	AdditionalData types.NullableAny    `json:"additional_data"`
}

// Message returns the failure reason reported by the API, joining error and
// error_info when both are set. It is empty when neither is.
func (e *Envelope[T]) Message() string {
	switch {
	case !e.Error.IsBlank() && !e.ErrorInfo.IsBlank():
		return e.Error.String() + ": " + e.ErrorInfo.String()
	case !e.Error.IsBlank():
		return e.Error.String()
	default:
		return e.ErrorInfo.String()
	}
}

// Err returns nil on success, else ErrApplication carrying Message.
func (e *Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	msg := e.Message()
	if msg == "" {
		msg = "request was not successful"
	}
	return ErrApplication.Msg(msg)
}

// DecodeEnvelope parses body into an Envelope. Fields not known to T are
// ignored. A body that is empty or not valid JSON for the envelope yields
// ErrDecodeFailed.
func DecodeEnvelope[T any](body []byte) (*Envelope[T], error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrDecodeFailed.Msg("empty response body")
	}
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrDecodeFailed.MsgErr("invalid response envelope", err)
	}
	return &env, nil
}
