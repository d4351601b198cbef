// Package httpx provides request parsing and response writing for servers
// that speak the Pipedrive response envelope: every body is a JSON object
// with a success flag, the payload under data, and error/error_info on
// failure.
package httpx

import (
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-pipedrive/internal/common/apperrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetRequestData decodes the JSON body of a POST, PUT or PATCH request into
// data.
func GetRequestData(r *http.Request, data any) error {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil || r.Body == http.NoBody {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrUnableToParseReqData("empty request body")
		}
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response is a successful reply. Data becomes the envelope's data member;
// AdditionalData, when set, its additional_data member.
type Response struct {
	StatusCode     int
	Data           any
	AdditionalData any
}

// RequestHandler handles a request and returns either a Response or an error.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHttpRsp adapts a RequestHandler to http.HandlerFunc. Errors are sent as
// failure envelopes: *Error as is, apperrors.Error with its status code
// (500 when unset), anything else as 500.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			var httpErr *Error
			var appErr apperrors.Error
			switch {
			case errors.As(err, &httpErr):
				httpErr.Send(w)
			case errors.As(err, &appErr):
				SendError(w, appErr)
			default:
				ErrApplicationError(err.Error()).Send(w)
			}
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		statusCode := rsp.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		SendJsonRsp(r.Context(), w, statusCode, rsp.Data, rsp.AdditionalData)
	})
}
