package httpx

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

const contentTypeJSON = "application/json; charset=utf-8"

type successRsp struct {
	Success        bool `json:"success"`
	Data           any  `json:"data"`
	AdditionalData any  `json:"additional_data,omitempty"`
}

// SendJsonRsp writes a success envelope. data may be a value to marshal or
// raw JSON as []byte, string or json.RawMessage.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, data any, additional any) {
	rsp := successRsp{
		Success:        true,
		Data:           rawIfJSON(data),
		AdditionalData: rawIfJSON(additional),
	}
	b, err := json.Marshal(rsp)
	if err != nil {
		log.Ctx(ctx).Err(err).Msg("unable to marshal json")
		ErrApplicationError("request id: " + logtrace.RequestIDFromContext(ctx)).Send(w)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write(b)
}

func rawIfJSON(v any) any {
	switch b := v.(type) {
	case []byte:
		if json.Valid(b) {
			return jsonRaw(b)
		}
	case string:
		if json.Valid([]byte(b)) {
			return jsonRaw(b)
		}
	}
	return v
}
