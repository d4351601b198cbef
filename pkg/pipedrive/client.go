// Package pipedrive provides the client tasks use to call the Pipedrive REST
// API. A Client authenticates every request with the api_token query
// parameter, encodes bodies as snake_case JSON, retries transient failures
// (429, 5xx, I/O errors) with exponential backoff, and decodes the
// {success, data, error, error_info} envelope into a caller-chosen type.
//
// A Client is created per task invocation and must be closed when the
// invocation ends:
//
//	client, err := pipedrive.NewClient(token, pipedrive.WithBaseURL(apiURL))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	env, err := pipedrive.Get[pipedrive.Person](ctx, client, "/persons/12")
//
// A Client is not safe for concurrent use.
package pipedrive

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultTimeout is the default connect, read and write timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxAttempts is the default attempt budget of a logical call.
	DefaultMaxAttempts uint = 3
	// DefaultRetryDelay is the wait before the first retry.
	DefaultRetryDelay = time.Second
)

// Client is an authenticated handle on the Pipedrive API. It owns its
// connection pool; Close releases it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	config     clientConfig
	logger     zerolog.Logger
	closed     bool
}

// ClientOption is a function type for configuring client behavior.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL        string
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	policy         RetryPolicy
	logger         *zerolog.Logger
	transport      http.RoundTripper
	timer          retry.Timer
}

// WithBaseURL overrides the API root. Trailing slashes are stripped.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithConnectTimeout bounds TCP connection and TLS handshake time.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.connectTimeout = timeout
	}
}

// WithReadTimeout bounds how long the client waits for the response headers
// after the request was written, and separately for reading the body.
func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.readTimeout = timeout
	}
}

// WithWriteTimeout bounds how long sending the request may take. It is added
// to the read timeout to form the response header deadline.
func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.writeTimeout = timeout
	}
}

// WithMaxAttempts sets the attempt budget of a logical call, including the
// first attempt.
func WithMaxAttempts(attempts uint) ClientOption {
	return func(c *clientConfig) {
		c.policy.MaxAttempts = attempts
	}
}

// WithRetryDelay sets the wait before the first retry. Later retries double it.
func WithRetryDelay(delay time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.policy.BaseDelay = delay
	}
}

// WithLogger sets the logger. The global zerolog logger is used by default.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = &logger
	}
}

// WithTransport replaces the round tripper performing a single exchange. The
// retry policy still wraps it. Timeouts other than the body read timeout are
// then the transport's responsibility.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// withTimer replaces the clock used for backoff waits.
func withTimer(timer retry.Timer) ClientOption {
	return func(c *clientConfig) {
		c.timer = timer
	}
}

// NewClient creates a client authenticating with token. It fails with
// ErrConfiguration when the token is empty or the options are invalid; no
// network call is made.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	config := clientConfig{
		baseURL:        DefaultBaseURL,
		connectTimeout: DefaultTimeout,
		readTimeout:    DefaultTimeout,
		writeTimeout:   DefaultTimeout,
		policy:         DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if strings.TrimSpace(token) == "" {
		return nil, ErrConfiguration.Msg("API token is required")
	}
	if config.policy.MaxAttempts == 0 {
		return nil, ErrConfiguration.Msg("max attempts must be at least 1")
	}
	if config.policy.BaseDelay < 0 {
		return nil, ErrConfiguration.Msg("retry delay must not be negative")
	}
	baseURL := NormalizeBaseURL(config.baseURL)
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, ErrConfiguration.Msg("API URL must start with http:// or https://")
	}

	logger := log.Logger
	if config.logger != nil {
		logger = *config.logger
	}

	next := config.transport
	if next == nil {
		next = newHTTPTransport(config)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: newRetryTransport(next, config.policy, config.timer, logger),
		},
		baseURL: baseURL,
		token:   token,
		config:  config,
		logger:  logger,
	}, nil
}

func newHTTPTransport(config clientConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   config.connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   config.connectTimeout,
		ResponseHeaderTimeout: config.writeTimeout + config.readTimeout,
		ExpectContinueTimeout: time.Second,
	}
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close drains the connection pool. The client cannot be used afterwards.
// Close is idempotent.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}
