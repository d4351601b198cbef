package httpx

import (
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tansive/tansive-pipedrive/internal/common/apperrors"
)

type jsonRaw = jsoniter.RawMessage

// Error is a failure reply. Message maps to the envelope's error member and
// Info to error_info.
type Error struct {
	StatusCode int
	Message    string
	Info       string
}

type errorRsp struct {
	Success   bool    `json:"success"`
	Error     string  `json:"error"`
	ErrorInfo *string `json:"error_info"`
}

// Send writes the failure envelope. A nil writer is ignored.
func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	rsp := errorRsp{Error: e.Message}
	if e.Info != "" {
		rsp.ErrorInfo = &e.Info
	}
	b, err := json.Marshal(rsp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("unable to encode error"))
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(b)
}

func (e *Error) Error() string {
	if e.Info == "" {
		return e.Message
	}
	return e.Message + ": " + e.Info
}

// SendError sends an application error. A nil error is ignored.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	statusCode := err.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	(&Error{StatusCode: statusCode, Message: err.Error(), Info: infoOf(err)}).Send(w)
}

func infoOf(err apperrors.Error) string {
	all := err.ErrorAll()
	return strings.TrimPrefix(strings.TrimPrefix(all, err.Error()), ": ")
}

func errorOf(status int, msg string, info []string) *Error {
	return &Error{StatusCode: status, Message: msg, Info: strings.Join(info, "; ")}
}

// ErrReqMethodNotSupported is returned for a method the route does not accept.
func ErrReqMethodNotSupported() *Error {
	return errorOf(http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// ErrUnableToParseReqData is returned when the request body is not valid JSON.
func ErrUnableToParseReqData(info ...string) *Error {
	return errorOf(http.StatusBadRequest, "Unable to parse request body", info)
}

// ErrInvalidRequest is returned when a request is well formed but rejected.
func ErrInvalidRequest(info ...string) *Error {
	return errorOf(http.StatusBadRequest, "Bad request", info)
}

// ErrUnAuthorized is returned when the API token is missing or wrong.
func ErrUnAuthorized(info ...string) *Error {
	return errorOf(http.StatusUnauthorized, "unauthorized access", info)
}

// ErrNotFound is returned when an entity does not exist.
func ErrNotFound(info ...string) *Error {
	return errorOf(http.StatusNotFound, "Entity not found", info)
}

// ErrTooManyRequests is returned when the caller is rate limited.
func ErrTooManyRequests() *Error {
	return errorOf(http.StatusTooManyRequests, "Request over limit", nil)
}

// ErrApplicationError is returned for unexpected server failures.
func ErrApplicationError(info ...string) *Error {
	return errorOf(http.StatusInternalServerError, "Internal server error", info)
}
