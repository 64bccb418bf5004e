package dispatch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
)

// Connection owns at most one physical stream to a single origin. The
// stream is dialed on first use and checked for liveness before every
// reuse; a dropped peer is replaced with a fresh dial without the
// caller noticing. An exchange that fails mid-flight because the peer
// went away is replayed exactly once on a new stream, provided its
// body is replayable.
type Connection struct {
	scheme  string
	host    string
	port    int
	backend backend.Backend
	tlsConf *tls.Config
	timeout time.Duration
	logger  hclog.Logger

	mu      sync.Mutex
	stream  backend.Stream
	session session
}

// NewConnection builds an idle connection to scheme://host:port.
func NewConnection(b backend.Backend, scheme, host string, port int, tlsConf *tls.Config, timeout time.Duration, logger hclog.Logger) *Connection {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if scheme == "https" && tlsConf == nil {
		tlsConf = &tls.Config{}
	}
	return &Connection{
		scheme:  scheme,
		host:    host,
		port:    port,
		backend: b,
		tlsConf: tlsConf,
		timeout: timeout,
		logger:  logger,
	}
}

// Send performs one exchange, dialing first if needed.
func (c *Connection) Send(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !req.Headers.Has("X-Request-ID") {
		req.Headers.Set("X-Request-ID", uuid.NewString())
	}

	if err := c.ensureOpen(ctx); err != nil {
		return nil, err
	}
	resp, err := c.session.roundTrip(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, httpcore.ErrConnectionClosed) || !replayable(req) {
		return nil, err
	}

	// The peer went away under us. Replay once on a fresh stream.
	c.logger.Debug("connection lost mid-exchange, replaying",
		"host", c.host, "request_id", req.Headers.Get("X-Request-ID"))
	c.reset()
	if err := c.ensureOpen(ctx); err != nil {
		return nil, err
	}
	return c.session.roundTrip(ctx, req)
}

// ensureOpen dials if there is no live stream yet, discarding a stream
// whose peer has dropped.
func (c *Connection) ensureOpen(ctx context.Context) error {
	if c.stream != nil && c.stream.IsConnectionDropped() {
		c.logger.Debug("pooled connection dropped by peer, redialing", "host", c.host, "port", c.port)
		c.reset()
	}
	if c.stream != nil {
		return nil
	}

	var tlsConf *tls.Config
	if c.scheme == "https" {
		tlsConf = c.tlsConf
	}
	stream, err := c.backend.Connect(ctx, c.host, c.port, tlsConf, c.timeout)
	if err != nil {
		return fmt.Errorf("connect %s:%d: %w", c.host, c.port, err)
	}
	c.stream = stream
	switch stream.ProtocolVersion() {
	case "HTTP/2":
		c.session = newH2Session(stream, c.logger)
	default:
		c.session = newH1Session(stream, c.logger)
	}
	c.logger.Debug("connection established", "host", c.host, "port", c.port, "protocol", stream.ProtocolVersion())
	return nil
}

func (c *Connection) reset() {
	if c.stream != nil {
		c.stream.Close()
	}
	c.stream = nil
	c.session = nil
}

// Close tears down the stream, if any.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	c.session = nil
	return err
}

// replayable reports whether req can safely be sent a second time. A
// one-shot streamed body that has been consumed cannot.
func replayable(req *httpcore.Request) bool {
	return !req.Body.IsStreaming()
}
