package middleware

import (
	"context"

	"github.com/toppk/httpx/packages/httpcore"
)

// Responder sends a request and produces its response.
type Responder func(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error)

// Middleware wraps a responder with additional behavior. Apply must
// either call next exactly once, or short-circuit by returning a
// synthesized response without calling it. Errors from next propagate
// unchanged unless the middleware deliberately converts them.
type Middleware interface {
	Apply(ctx context.Context, req *httpcore.Request, next Responder) (*httpcore.Response, error)
}

// Chain nests middlewares around terminal. mws[0] is outermost: it sees
// the caller's request first and the final response last.
func Chain(terminal Responder, mws ...Middleware) Responder {
	next := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		mw, inner := mws[i], next
		next = func(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
			return mw.Apply(ctx, req, inner)
		}
	}
	return next
}
