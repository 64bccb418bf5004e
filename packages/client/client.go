package client

import (
	"context"
	"crypto/tls"

	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/dispatch"
	"github.com/toppk/httpx/packages/httpcore"
	"github.com/toppk/httpx/packages/middleware"
)

// Client issues HTTP requests through a middleware chain terminated by
// a dispatcher. The zero of every option is usable: New() gives a
// redirect-following client over real sockets.
type Client struct {
	backend    backend.Backend
	dispatcher dispatch.Dispatcher
	logger     hclog.Logger
	tlsConf    *tls.Config

	auth         middleware.Middleware
	follow       bool
	maxRedirects int
	cookies      httpcore.Cookies
	headers      []httpcore.Field

	responder middleware.Responder
}

// New builds a client.
func New(opts ...Option) *Client {
	c := &Client{
		logger:       hclog.NewNullLogger(),
		follow:       true,
		maxRedirects: middleware.DefaultMaxRedirects,
		cookies:      httpcore.Cookies{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend == nil {
		c.backend = backend.NewNetBackend(backend.WithNetLogger(c.logger))
	}
	if c.dispatcher == nil {
		c.dispatcher = dispatch.NewPool(c.backend,
			dispatch.WithLogger(c.logger),
			dispatch.WithTLSConfig(c.tlsConf),
		)
	}
	c.responder = c.chain(c.follow)
	return c
}

// chain assembles the responder stack for the given redirect mode.
func (c *Client) chain(follow bool) middleware.Responder {
	policy := &middleware.RedirectPolicy{
		FollowRedirects: follow,
		MaxRedirects:    c.maxRedirects,
		Cookies:         c.cookies,
	}
	mws := make([]middleware.Middleware, 0, 2)
	if c.auth != nil {
		mws = append(mws, c.auth)
	}
	mws = append(mws, policy)
	return middleware.Chain(c.dispatcher.Send, mws...)
}

// Send runs req through the configured chain.
func (c *Client) Send(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	return c.responder(ctx, req)
}

// Do builds and sends a request for method and rawurl.
func (c *Client) Do(ctx context.Context, method, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	req, err := httpcore.NewRequest(method, rawurl)
	if err != nil {
		return nil, err
	}
	for _, f := range c.headers {
		req.Headers.Set(f.Key, f.Value)
	}

	cfg := requestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.apply(req)

	// Client cookies seed the request; per-request cookies win.
	merged := c.cookies.Clone()
	merged.Merge(req.Cookies)
	req.Cookies = merged

	c.logger.Debug("request", "method", method, "url", rawurl)
	responder := c.responder
	if cfg.follow != nil && *cfg.follow != c.follow {
		responder = c.chain(*cfg.follow)
	}
	return responder(ctx, req)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "GET", rawurl, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "HEAD", rawurl, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "POST", rawurl, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "PUT", rawurl, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "PATCH", rawurl, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, rawurl string, opts ...RequestOption) (*httpcore.Response, error) {
	return c.Do(ctx, "DELETE", rawurl, opts...)
}

// Backend exposes the client's scheduler, for callers that need to
// bridge onto it with backend.RunBlocking.
func (c *Client) Backend() backend.Backend {
	return c.backend
}

// Close releases pooled connections.
func (c *Client) Close() error {
	return c.dispatcher.Close()
}
