package client

import (
	"crypto/tls"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/dispatch"
	"github.com/toppk/httpx/packages/httpcore"
	"github.com/toppk/httpx/packages/middleware"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithBackend selects the concurrency backend. The default dials real
// sockets with free goroutines.
func WithBackend(b backend.Backend) Option {
	return func(c *Client) { c.backend = b }
}

// WithDispatcher replaces the connection pool entirely. The backend is
// then only used for scheduling.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(c *Client) { c.dispatcher = d }
}

// WithLogger sets the logger shared by the client and its pool.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTLSConfig sets the TLS configuration for https origins.
func WithTLSConfig(conf *tls.Config) Option {
	return func(c *Client) { c.tlsConf = conf }
}

// WithBasicAuth attaches a basic-auth middleware.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) { c.auth = middleware.NewBasicAuth(username, password) }
}

// WithAuth attaches a custom auth middleware transforming each request.
func WithAuth(fn middleware.AuthFunc) Option {
	return func(c *Client) { c.auth = middleware.NewCustomAuth(fn) }
}

// WithFollowRedirects selects eager redirect following (the default)
// or stop-and-resume via Response.Next.
func WithFollowRedirects(follow bool) Option {
	return func(c *Client) { c.follow = follow }
}

// WithMaxRedirects bounds redirect chains.
func WithMaxRedirects(n int) Option {
	return func(c *Client) { c.maxRedirects = n }
}

// WithCookies seeds cookies merged into every request.
func WithCookies(cookies httpcore.Cookies) Option {
	return func(c *Client) { c.cookies = cookies.Clone() }
}

// WithDefaultHeader sets a header on every outgoing request. Request
// options override it per call.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers = append(c.headers, httpcore.Field{Key: key, Value: value})
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers []httpcore.Field
	body    []byte
	stream  io.Reader
	cookies httpcore.Cookies
	follow  *bool
}

func (cfg *requestConfig) apply(req *httpcore.Request) {
	for _, f := range cfg.headers {
		req.Headers.Set(f.Key, f.Value)
	}
	if cfg.stream != nil {
		req.Body = httpcore.NewStreamBody(cfg.stream)
	} else if cfg.body != nil {
		req.Body = httpcore.NewBody(cfg.body)
	}
	for k, v := range cfg.cookies {
		req.SetCookie(k, v)
	}
}

// WithHeader sets a header for this request only.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		cfg.headers = append(cfg.headers, httpcore.Field{Key: key, Value: value})
	}
}

// WithBody attaches a replayable byte body.
func WithBody(body []byte) RequestOption {
	return func(cfg *requestConfig) { cfg.body = body }
}

// WithStreamBody attaches a one-shot streamed body. Redirects that
// would need to resend it fail instead of replaying.
func WithStreamBody(r io.Reader) RequestOption {
	return func(cfg *requestConfig) { cfg.stream = r }
}

// WithCookie adds a cookie for this request only.
func WithCookie(name, value string) RequestOption {
	return func(cfg *requestConfig) {
		if cfg.cookies == nil {
			cfg.cookies = httpcore.Cookies{}
		}
		cfg.cookies[name] = value
	}
}

// AllowRedirects overrides the client's redirect mode for one call.
func AllowRedirects(follow bool) RequestOption {
	return func(cfg *requestConfig) { cfg.follow = &follow }
}
