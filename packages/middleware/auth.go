package middleware

import (
	"context"
	"encoding/base64"

	"github.com/toppk/httpx/packages/httpcore"
)

// BasicAuth injects a static Authorization header into every outgoing
// request, overwriting any existing value. The credential is encoded
// once at construction time.
type BasicAuth struct {
	header string
}

// NewBasicAuth builds a BasicAuth middleware for the given credentials.
func NewBasicAuth(username, password string) *BasicAuth {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &BasicAuth{header: "Basic " + token}
}

func (a *BasicAuth) Apply(ctx context.Context, req *httpcore.Request, next Responder) (*httpcore.Response, error) {
	req.Headers.Set("Authorization", a.header)
	return next(ctx, req)
}

// AuthFunc is a caller-supplied pure transform applied to a request
// before it is forwarded.
type AuthFunc func(*httpcore.Request) *httpcore.Request

// CustomAuth applies an arbitrary transform to each request.
type CustomAuth struct {
	fn AuthFunc
}

// NewCustomAuth wraps fn as a middleware.
func NewCustomAuth(fn AuthFunc) *CustomAuth {
	return &CustomAuth{fn: fn}
}

func (a *CustomAuth) Apply(ctx context.Context, req *httpcore.Request, next Responder) (*httpcore.Response, error) {
	return next(ctx, a.fn(req))
}
