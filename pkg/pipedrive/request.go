package pipedrive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tansive/tansive-pipedrive/internal/common/logtrace"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Get sends GET base+path and decodes the envelope into T.
func Get[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	return execute[T](ctx, c, http.MethodGet, path, nil, false)
}

// Post sends body as JSON to base+path and decodes the envelope into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return execute[T](ctx, c, http.MethodPost, path, body, true)
}

// Put sends body as JSON to base+path and decodes the envelope into T.
func Put[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return execute[T](ctx, c, http.MethodPut, path, body, true)
}

// Delete sends DELETE base+path and decodes the envelope into T.
func Delete[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	return execute[T](ctx, c, http.MethodDelete, path, nil, false)
}

func execute[T any](ctx context.Context, c *Client, method, path string, body any, hasBody bool) (*Envelope[T], error) {
	respBody, err := c.do(ctx, method, path, body, hasBody)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope[T](respBody)
}

// do runs one logical call and returns the body of a 2xx response. Non-2xx
// responses become *RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body any, hasBody bool) ([]byte, error) {
	if c == nil || c.closed {
		return nil, ErrConfiguration.Msg("client is closed")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, requestID := logtrace.EnsureRequestID(ctx)

	req, err := c.newRequest(ctx, method, path, body, hasBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set(logtrace.HeaderRequestID, requestID)

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", req.URL.Path).
		Logger()

	// The exchange context is canceled when the body read outlives the read
	// timeout.
	exCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req = req.WithContext(exCtx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = c.classify(ctx, err)
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("pipedrive request failed")
		return nil, err
	}
	defer resp.Body.Close()

	timer := time.AfterFunc(c.config.readTimeout, cancel)
	respBody, err := io.ReadAll(resp.Body)
	timedOut := !timer.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrRequestCanceled.Err(ctx.Err())
		}
		if timedOut {
			return nil, ErrTransport.MsgErr("timed out reading response body", err)
		}
		return nil, ErrTransport.MsgErr("unable to read response body", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("pipedrive request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, hasBody bool) (*http.Request, error) {
	var reader io.Reader
	if hasBody {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, ErrConfiguration.MsgErr("unable to encode request body", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, BuildURL(c.baseURL, path, c.token), reader)
	if err != nil {
		// url.Error carries the full URL, token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, ErrConfiguration.MsgErr("invalid request", err)
	}
	if hasBody {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// classify maps an error from http.Client.Do onto the package sentinels. The
// *url.Error wrapper is dropped so the token in the URL is not exposed.
func (c *Client) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ErrRequestCanceled.Err(ctxErr)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if errors.Is(err, ErrPipedrive) {
		return err
	}
	return ErrTransport.MsgErr("request failed", err)
}
