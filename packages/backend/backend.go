package backend

import (
	"context"
	"crypto/tls"
	"time"
)

// Stream is a bidirectional byte channel to one physical connection.
// Reads and writes on one stream must not run concurrently with each
// other from two tasks; callers serialize access per logical exchange.
type Stream interface {
	// Read fills p with available bytes, honoring any ctx deadline.
	Read(ctx context.Context, p []byte) (int, error)

	// Write sends all of p, honoring any ctx deadline.
	Write(ctx context.Context, p []byte) error

	Close() error

	// IsConnectionDropped reports whether the peer has gone away. Layers
	// above check this before reusing a pooled connection.
	IsConnectionDropped() bool

	// ProtocolVersion returns the negotiated protocol, "HTTP/1.1" or
	// "HTTP/2".
	ProtocolVersion() string
}

// Task is a handle on a background operation started via Go.
type Task interface {
	// Wait blocks until the operation completes and returns its error.
	Wait() error
}

// Backend is the capability interface over a concurrency scheduler,
// selected once at construction time by dependency injection.
type Backend interface {
	// Sleep suspends the calling task for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	// Connect establishes a transport stream to host:port, wrapping it in
	// TLS when tlsConf is non-nil. ALPN decides the protocol version.
	Connect(ctx context.Context, host string, port int, tlsConf *tls.Config, timeout time.Duration) (Stream, error)

	// Go runs fn in the background and returns a handle to join it.
	Go(fn func() error) Task
}

// RunBlocking executes fn on b's scheduler in a dedicated background
// task and blocks the caller only on that task's completion. It is the
// bridge for driving one scheduler's code path from a harness running on
// another.
func RunBlocking(b Backend, fn func() error) error {
	return b.Go(fn).Wait()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
