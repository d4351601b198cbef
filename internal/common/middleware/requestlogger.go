// Package middleware provides HTTP middleware for request logging and panic
// recovery. It integrates with zerolog and propagates the caller's request ID.
package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-pipedrive/internal/common/httpx"
	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

// RequestLogger logs each request and its outcome. The request ID is taken
// from the X-Request-ID header, or generated, and is echoed on the response
// and stored in the request context with a logger carrying it.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(logtrace.HeaderRequestID)
		if requestID == "" {
			requestID = logtrace.NewID()
		}
		ctx := logtrace.WithRequestID(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)

		w.Header().Set(logtrace.HeaderRequestID, requestID)
		rw := httpx.NewResponseWriter(w)

		// the query string carries the API token and is never logged
		log.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Msg("incoming request")

		defer func() {
			log.Ctx(ctx).Debug().
				Int("status", rw.Status()).
				Int("bytes", rw.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		}()

		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}
