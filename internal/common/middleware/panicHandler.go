package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-pipedrive/internal/common/httpx"
	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

// PanicHandler turns a panicking handler into a 500 response carrying a
// failure envelope. Nothing is sent when the handler had already started
// writing; the panic is logged either way.
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := httpx.NewResponseWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Ctx(r.Context()).Error().
				Str("request_id", logtrace.RequestIDFromContext(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack_trace", debug.Stack()).
				Bool("response_started", rw.Written()).
				Msg("handler panicked")

			if !rw.Written() {
				httpx.ErrApplicationError("unable to process request").Send(rw)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
