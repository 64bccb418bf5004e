package middleware

import (
	"context"

	"github.com/toppk/httpx/packages/httpcore"
)

// DefaultMaxRedirects bounds redirect chains when no explicit ceiling is
// configured.
const DefaultMaxRedirects = 20

// RedirectPolicy is the redirect resolution engine, configured once and
// shared across calls. Per-chain state (hop history) lives in a fresh
// redirectState for every top-level request, so independent requests
// through the same policy never share redirect counts.
type RedirectPolicy struct {
	// FollowRedirects selects eager following. When false the engine
	// stops at the first redirect and exposes the next hop through
	// Response.Next.
	FollowRedirects bool

	// MaxRedirects bounds the hop count, not the initial request.
	MaxRedirects int

	// Cookies is a seed cookie set merged into every rewritten request.
	// Cookies already on the request win on conflict.
	Cookies httpcore.Cookies
}

// NewRedirectPolicy returns an eager-following policy with the default
// hop ceiling.
func NewRedirectPolicy() *RedirectPolicy {
	return &RedirectPolicy{FollowRedirects: true, MaxRedirects: DefaultMaxRedirects}
}

func (p *RedirectPolicy) Apply(ctx context.Context, req *httpcore.Request, next Responder) (*httpcore.Response, error) {
	st := &redirectState{
		follow: p.FollowRedirects,
		max:    p.MaxRedirects,
		seed:   p.Cookies.Clone(),
	}
	return st.dispatch(ctx, req, next)
}

// redirectState is the per-chain engine state. It doubles as the
// resumable continuation: Response.Next re-enters dispatch with the
// rewritten request and the same state, so the hop counter and history
// keep accumulating across continuation calls.
type redirectState struct {
	follow  bool
	max     int
	seed    httpcore.Cookies
	history []*httpcore.Response
}

func (st *redirectState) dispatch(ctx context.Context, req *httpcore.Request, next Responder) (*httpcore.Response, error) {
	for {
		if len(st.history) > st.max {
			return nil, httpcore.ErrTooManyRedirects
		}
		for _, prev := range st.history {
			if req.URL.Equal(prev.URL()) {
				return nil, httpcore.ErrRedirectLoop
			}
		}

		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.Request = req
		resp.History = append([]*httpcore.Response(nil), st.history...)

		if !resp.IsRedirect() {
			return resp, nil
		}

		st.history = append(st.history, resp)
		nextReq, err := st.buildRedirect(req, resp)
		if err != nil {
			return nil, err
		}

		if !st.follow {
			resp.Next = func(ctx context.Context) (*httpcore.Response, error) {
				return st.dispatch(ctx, nextReq, next)
			}
			return resp, nil
		}
		req = nextReq
	}
}

// buildRedirect rewrites req for the hop demanded by resp.
func (st *redirectState) buildRedirect(req *httpcore.Request, resp *httpcore.Response) (*httpcore.Request, error) {
	method := redirectMethod(req, resp)
	u, err := redirectURL(req, resp)
	if err != nil {
		return nil, err
	}
	body, err := redirectBody(req, method)
	if err != nil {
		return nil, err
	}

	cookies := st.seed.Clone()
	cookies.Merge(req.Cookies)

	return &httpcore.Request{
		Method:  method,
		URL:     u,
		Headers: redirectHeaders(req, u),
		Cookies: cookies,
		Body:    body,
	}, nil
}

// redirectMethod applies the method rewrite rules. 303 forces GET unless
// the original method was HEAD; 302 is treated the same way, matching
// deployed browsers rather than strict HTTP semantics; 301 rewrites only
// POST to GET.
func redirectMethod(req *httpcore.Request, resp *httpcore.Response) string {
	method := req.Method
	if resp.StatusCode == httpcore.StatusSeeOther && method != "HEAD" {
		method = "GET"
	}
	if resp.StatusCode == httpcore.StatusFound && method != "HEAD" {
		method = "GET"
	}
	if resp.StatusCode == httpcore.StatusMovedPermanently && method == "POST" {
		method = "GET"
	}
	return method
}

// redirectURL resolves the Location target against the current request
// URL and carries the original fragment forward when the target has
// none (RFC 7231 section 7.1.2).
func redirectURL(req *httpcore.Request, resp *httpcore.Response) (*httpcore.URL, error) {
	location := resp.Headers.Get("Location")
	u, err := httpcore.ParseRef(location)
	if err != nil {
		return nil, err
	}
	if u.IsRelative() {
		u = req.URL.Join(u)
	}
	if req.URL.Fragment() != "" && u.Fragment() == "" {
		u = u.WithFragment(req.URL.Fragment())
	}
	return u, nil
}

// redirectHeaders copies the request headers, stripping Authorization
// and Host when the target is a different origin. Credentials and host
// binding never leak across origins.
func redirectHeaders(req *httpcore.Request, target *httpcore.URL) httpcore.Headers {
	headers := req.Headers.Clone()
	if !target.SameOrigin(req.URL) {
		headers.Del("Authorization")
		headers.Del("Host")
	}
	return headers
}

// redirectBody drops the body when the method was rewritten to GET and
// refuses to replay a one-shot stream for any other hop.
func redirectBody(req *httpcore.Request, method string) (*httpcore.Body, error) {
	if method != req.Method && method == "GET" {
		return nil, nil
	}
	if req.Body == nil {
		return nil, nil
	}
	if req.Body.IsStreaming() {
		return nil, httpcore.ErrRedirectBodyUnavailable
	}
	return httpcore.NewBody(req.Body.Content()), nil
}
