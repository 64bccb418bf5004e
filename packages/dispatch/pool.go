package dispatch

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
)

// DefaultMaxConnections bounds how many origins a pool holds streams
// to at once.
const DefaultMaxConnections = 100

// DefaultConnectTimeout bounds each dial attempt.
const DefaultConnectTimeout = 30 * time.Second

// Pool is the terminal dispatcher: it routes each request to the
// connection for its origin, creating connections lazily and capping
// the number of exchanges in flight with a semaphore.
type Pool struct {
	backend backend.Backend
	tlsConf *tls.Config
	timeout time.Duration
	logger  hclog.Logger
	sem     chan struct{}

	mu    sync.Mutex
	conns map[string]*Connection
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger sets the pool's logger, shared with its connections.
func WithLogger(logger hclog.Logger) PoolOption {
	return func(p *Pool) { p.logger = logger }
}

// WithTLSConfig sets the TLS configuration used for https origins.
func WithTLSConfig(conf *tls.Config) PoolOption {
	return func(p *Pool) { p.tlsConf = conf }
}

// WithMaxConnections caps concurrent in-flight exchanges.
func WithMaxConnections(n int) PoolOption {
	return func(p *Pool) { p.sem = make(chan struct{}, n) }
}

// WithConnectTimeout bounds each dial attempt.
func WithConnectTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.timeout = d }
}

// NewPool builds a connection pool over b.
func NewPool(b backend.Backend, opts ...PoolOption) *Pool {
	p := &Pool{
		backend: b,
		timeout: DefaultConnectTimeout,
		logger:  hclog.NewNullLogger(),
		sem:     make(chan struct{}, DefaultMaxConnections),
		conns:   make(map[string]*Connection),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send implements Dispatcher.
func (p *Pool) Send(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	conn := p.connectionFor(req.URL)
	return conn.Send(ctx, req)
}

// connectionFor returns the connection for u's origin, creating it on
// first sight. Origins with default ports share a connection with
// their explicit-port spelling.
func (p *Pool) connectionFor(u *httpcore.URL) *Connection {
	origin := u.Origin()
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn, ok := p.conns[origin]; ok {
		return conn
	}
	p.logger.Debug("new origin", "origin", origin)
	conn := NewConnection(p.backend, u.Scheme(), u.Hostname(), u.Port(), p.tlsConf, p.timeout, p.logger)
	p.conns[origin] = conn
	return conn
}

// Close closes every pooled connection, aggregating failures.
func (p *Pool) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]*Connection)
	p.mu.Unlock()

	var result *multierror.Error
	for origin, conn := range conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
			p.logger.Warn("closing connection", "origin", origin, "error", err)
		}
	}
	return result.ErrorOrNil()
}
