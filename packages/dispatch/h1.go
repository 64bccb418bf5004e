package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
)

// h1Session speaks HTTP/1.1 over one stream. The protocol allows only
// one exchange in flight, so the session lock doubles as connection
// exclusivity.
type h1Session struct {
	stream backend.Stream
	logger hclog.Logger

	mu sync.Mutex
	br *streamReader
}

func newH1Session(stream backend.Stream, logger hclog.Logger) *h1Session {
	return &h1Session{
		stream: stream,
		logger: logger,
		br:     &streamReader{stream: stream},
	}
}

func (s *h1Session) roundTrip(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := req.Body.ReadAll()
	if err != nil {
		return nil, err
	}

	var wire bytes.Buffer
	fmt.Fprintf(&wire, "%s %s HTTP/1.1\r\n", req.Method, req.URL.RequestTarget())
	fmt.Fprintf(&wire, "Host: %s\r\n", hostHeader(req))
	if len(body) > 0 {
		fmt.Fprintf(&wire, "Content-Length: %d\r\n", len(body))
	}
	for _, f := range req.Headers.Fields() {
		if strings.EqualFold(f.Key, "Host") {
			continue
		}
		fmt.Fprintf(&wire, "%s: %s\r\n", f.Key, f.Value)
	}
	if cookie := req.Cookies.HeaderValue(); cookie != "" {
		fmt.Fprintf(&wire, "Cookie: %s\r\n", cookie)
	}
	wire.WriteString("\r\n")
	wire.Write(body)

	s.logger.Debug("request sent", "method", req.Method, "target", req.URL.RequestTarget())
	if err := s.stream.Write(ctx, wire.Bytes()); err != nil {
		return nil, fmt.Errorf("write request: %w", httpcore.ErrConnectionClosed)
	}

	return s.readResponse(ctx, req)
}

func (s *h1Session) readResponse(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	statusLine, err := s.br.readLine(ctx)
	if err != nil {
		return nil, fmt.Errorf("read status line: %w", httpcore.ErrConnectionClosed)
	}
	code, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, err
	}

	var headers httpcore.Headers
	for {
		line, err := s.br.readLine(ctx)
		if err != nil {
			return nil, fmt.Errorf("read headers: %w", httpcore.ErrConnectionClosed)
		}
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q: %w", line, httpcore.ErrProtocolViolation)
		}
		headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	var body []byte
	switch {
	case req.Method == "HEAD" || code/100 == 1 || code == httpcore.StatusNoContent:
		// no body by definition
	case headers.Has("Content-Length"):
		n, err := strconv.Atoi(headers.Get("Content-Length"))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad Content-Length %q: %w", headers.Get("Content-Length"), httpcore.ErrProtocolViolation)
		}
		body, err = s.br.readN(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", httpcore.ErrConnectionClosed)
		}
	default:
		// close-delimited: read to EOF
		body = s.br.readAll(ctx)
	}

	return &httpcore.Response{
		StatusCode: code,
		Headers:    headers,
		Body:       body,
		Request:    req,
	}, nil
}

func hostHeader(req *httpcore.Request) string {
	if h := req.Headers.Get("Host"); h != "" {
		return h
	}
	return req.URL.Host()
}

func parseStatusLine(line string) (int, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return 0, fmt.Errorf("malformed status line %q: %w", line, httpcore.ErrProtocolViolation)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed status code %q: %w", parts[1], httpcore.ErrProtocolViolation)
	}
	return code, nil
}

// streamReader buffers reads from a stream for line-oriented parsing.
type streamReader struct {
	stream backend.Stream
	buf    []byte
}

func (r *streamReader) fill(ctx context.Context) error {
	chunk := make([]byte, 4096)
	n, err := r.stream.Read(ctx, chunk)
	r.buf = append(r.buf, chunk[:n]...)
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

// readLine returns the next line without its CRLF terminator.
func (r *streamReader) readLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(r.buf, '\n'); i >= 0 {
			line := strings.TrimRight(string(r.buf[:i]), "\r")
			r.buf = r.buf[i+1:]
			return line, nil
		}
		if err := r.fill(ctx); err != nil {
			return "", err
		}
	}
}

func (r *streamReader) readN(ctx context.Context, n int) ([]byte, error) {
	for len(r.buf) < n {
		if err := r.fill(ctx); err != nil {
			return nil, err
		}
	}
	out := r.buf[:n:n]
	r.buf = r.buf[n:]
	return out, nil
}

func (r *streamReader) readAll(ctx context.Context) []byte {
	for {
		if err := r.fill(ctx); err != nil {
			out := r.buf
			r.buf = nil
			return out
		}
	}
}
