package mock

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/backend"
)

// Backend hands out in-memory H2Server streams while delegating
// scheduling to an inner backend, so the same scenario can be driven by
// any scheduler.
type Backend struct {
	handler Handler
	inner   backend.Backend
	logger  hclog.Logger

	mu     sync.Mutex
	server *H2Server
}

// Option configures a Backend.
type Option func(*Backend)

// WithInner sets the scheduler the mock delegates to.
func WithInner(b backend.Backend) Option {
	return func(m *Backend) { m.inner = b }
}

// WithLogger sets the logger passed to established servers.
func WithLogger(l hclog.Logger) Option {
	return func(m *Backend) { m.logger = l }
}

// NewBackend builds a mock backend around handler.
func NewBackend(handler Handler, opts ...Option) *Backend {
	m := &Backend{
		handler: handler,
		inner:   backend.NewNetBackend(),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect establishes a fresh in-memory server connection.
func (m *Backend) Connect(ctx context.Context, host string, port int, tlsConf *tls.Config, timeout time.Duration) (backend.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.server = NewH2Server(m.handler, m.logger)
	return m.server, nil
}

// Server returns the most recently established server, or nil.
func (m *Backend) Server() *H2Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server
}

func (m *Backend) Sleep(ctx context.Context, d time.Duration) error {
	return m.inner.Sleep(ctx, d)
}

func (m *Backend) Go(fn func() error) backend.Task {
	return m.inner.Go(fn)
}
