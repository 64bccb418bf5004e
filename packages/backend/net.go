package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NetBackend is the default scheduler: plain net dialing and free
// goroutines for background work.
type NetBackend struct {
	logger hclog.Logger
}

// NetOption configures a NetBackend.
type NetOption func(*NetBackend)

// WithNetLogger sets the backend logger.
func WithNetLogger(l hclog.Logger) NetOption {
	return func(b *NetBackend) { b.logger = l }
}

// NewNetBackend returns the default backend.
func NewNetBackend(opts ...NetOption) *NetBackend {
	b := &NetBackend{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *NetBackend) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (b *NetBackend) Connect(ctx context.Context, host string, port int, tlsConf *tls.Config, timeout time.Duration) (Stream, error) {
	b.logger.Debug("connecting", "host", host, "port", port, "tls", tlsConf != nil)
	return dialStream(ctx, host, port, tlsConf, timeout)
}

func (b *NetBackend) Go(fn func() error) Task {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return &chanTask{done: done}
}

type chanTask struct {
	done chan error
	err  error
	rcvd bool
}

func (t *chanTask) Wait() error {
	if !t.rcvd {
		t.err = <-t.done
		t.rcvd = true
	}
	return t.err
}

// dialStream is the connection establishment shared by both backends;
// the backends differ in task scheduling, not in dialing.
func dialStream(ctx context.Context, host string, port int, tlsConf *tls.Config, timeout time.Duration) (Stream, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	proto := "HTTP/1.1"
	if tlsConf != nil {
		cfg := tlsConf.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		if len(cfg.NextProtos) == 0 {
			cfg.NextProtos = []string{"h2", "http/1.1"}
		}
		tconn := tls.Client(conn, cfg)
		if err := tconn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		if tconn.ConnectionState().NegotiatedProtocol == "h2" {
			proto = "HTTP/2"
		}
		conn = tconn
	}
	return &netStream{conn: conn, proto: proto}, nil
}

// netStream adapts a net.Conn to the Stream interface, mapping ctx
// deadlines onto connection deadlines.
type netStream struct {
	conn  net.Conn
	proto string
	eof   bool
}

func (s *netStream) Read(ctx context.Context, p []byte) (int, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}
	n, err := s.conn.Read(p)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return n, err
}

func (s *netStream) Write(ctx context.Context, p []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
	} else {
		_ = s.conn.SetWriteDeadline(time.Time{})
	}
	for len(p) > 0 {
		n, err := s.conn.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (s *netStream) Close() error {
	return s.conn.Close()
}

func (s *netStream) IsConnectionDropped() bool {
	return s.eof
}

func (s *netStream) ProtocolVersion() string {
	return s.proto
}
