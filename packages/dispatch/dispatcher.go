package dispatch

import (
	"context"

	"github.com/toppk/httpx/packages/httpcore"
)

// Dispatcher sends a single request and returns its response. It sits
// at the bottom of the middleware chain: implementations see exactly
// the requests that survive the layers above, one call per wire
// exchange.
type Dispatcher interface {
	Send(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error)

	// Close releases all underlying connections.
	Close() error
}

// session is one protocol speaker bound to one stream. Implementations
// serialize their own codec access; a session never outlives its stream.
type session interface {
	roundTrip(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error)
}
