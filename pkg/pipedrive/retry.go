package pipedrive

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/tansive/tansive-pipedrive/internal/common/apperrors"
	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

// maxDrainBytes bounds how much of a discarded response is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

// RetryPolicy controls how a logical call is retried. Before retry n
// (0-based) the transport waits BaseDelay * 2^n.
type RetryPolicy struct {
	MaxAttempts uint          // total attempts including the first
	BaseDelay   time.Duration // wait before the first retry
}

// DefaultRetryPolicy allows three attempts waiting 1s, then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultRetryDelay}
}

// Delay returns the wait before retry n (0-based).
func (p RetryPolicy) Delay(n uint) time.Duration {
	return p.BaseDelay << n
}

// IsRetryableStatus reports whether a response status is worth retrying:
// 429 Too Many Requests or any 5xx.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryTransport wraps the single-exchange primitive with the retry policy.
// Every request made through the client passes through it, whatever the verb.
type retryTransport struct {
	next   http.RoundTripper
	policy RetryPolicy
	timer  retry.Timer
	logger zerolog.Logger
}

func newRetryTransport(next http.RoundTripper, policy RetryPolicy, timer retry.Timer, logger zerolog.Logger) *retryTransport {
	return &retryTransport{
		next:   next,
		policy: policy,
		timer:  timer,
		logger: logger,
	}
}

// RoundTrip runs up to policy.MaxAttempts exchanges. A 429/5xx response is
// closed and retried unless it came from the last allowed attempt, in which
// case it is returned as-is. Transport errors are retried the same way.
// Cancellation of the request context stops the loop at once.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := t.logger.With().
		Str("request_id", logtrace.RequestIDFromContext(ctx)).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Logger()

	var (
		resp    *http.Response
		attempt uint
	)
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(t.policy.MaxAttempts),
		retry.Delay(t.policy.BaseDelay),
		retry.DelayType(t.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && apperrors.IsRetryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= t.policy.MaxAttempts || ctx.Err() != nil {
				return
			}
			ev := logger.Warn().Uint("attempt", n+1).Uint("max_attempts", t.policy.MaxAttempts)
			if code := apperrors.StatusCodeOf(err); code != 0 {
				ev = ev.Int("status", code)
			} else {
				ev = ev.Err(err)
			}
			ev.Dur("retry_in", t.policy.Delay(n)).Msg("pipedrive request failed, retrying")
		}),
	}
	if t.timer != nil {
		opts = append(opts, retry.WithTimer(t.timer))
	}

	err := retry.Do(func() error {
		attempt++
		r, err := t.exchange(req, attempt)
		if err != nil {
			return err
		}
		if IsRetryableStatus(r.StatusCode) && attempt < t.policy.MaxAttempts {
			discard(r)
			return errRetryableStatus.Msg(fmt.Sprintf("status %d", r.StatusCode)).SetStatusCode(r.StatusCode)
		}
		resp = r
		return nil
	}, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ErrRequestCanceled.Err(ctxErr)
		}
		return nil, err
	}
	return resp, nil
}

// delay is a retry.DelayTypeFunc. retry-go numbers waits from 1.
func (t *retryTransport) delay(n uint, _ error, _ *retry.Config) time.Duration {
	if n == 0 {
		return t.policy.Delay(0)
	}
	return t.policy.Delay(n - 1)
}

// exchange performs one physical attempt. The first attempt sends req
// untouched; later attempts send a clone with a fresh body.
func (t *retryTransport) exchange(req *http.Request, attempt uint) (*http.Response, error) {
	out := req
	if attempt > 1 {
		out = req.Clone(req.Context())
		if req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return nil, ErrTransport.Msg("request body cannot be replayed").SetRetryable(false)
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, ErrTransport.MsgErr("unable to replay request body", err).SetRetryable(false)
			}
			out.Body = body
		}
	}

	resp, err := t.next.RoundTrip(out)
	if err != nil {
		if errors.Is(err, ErrPipedrive) {
			return nil, err
		}
		return nil, ErrTransport.MsgErr("exchange failed", err)
	}
	return resp, nil
}

// CloseIdleConnections drains the wrapped transport's connection pool.
func (t *retryTransport) CloseIdleConnections() {
	type closeIdler interface {
		CloseIdleConnections()
	}
	if c, ok := t.next.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

// discard releases a response that will not be returned to the caller.
func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
	_ = resp.Body.Close()
}
