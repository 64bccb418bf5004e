package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
)

// h2Session multiplexes requests over one HTTP/2 connection.
//
// Outbound frames for a request are written under the session lock,
// then the caller drives the shared read loop until its own stream
// ends. Inbound frames are routed through a correlation table keyed by
// stream identifier, so frames interleaved from other streams land on
// their exchanges rather than being misattributed to the reader. Each
// identifier maps to exactly one exchange for its whole lifetime and
// is never reused.
type h2Session struct {
	stream backend.Stream
	logger hclog.Logger

	mu        sync.Mutex
	rw        *streamRW
	fr        *http2.Framer
	henc      *hpack.Encoder
	hbuf      bytes.Buffer
	nextID    uint32
	exchanges map[uint32]*h2Exchange
	started   bool
}

// h2Exchange accumulates the response side of one stream.
type h2Exchange struct {
	status  int
	headers httpcore.Headers
	body    bytes.Buffer
	done    bool
}

func newH2Session(stream backend.Stream, logger hclog.Logger) *h2Session {
	rw := &streamRW{stream: stream}
	s := &h2Session{
		stream:    stream,
		logger:    logger,
		rw:        rw,
		fr:        http2.NewFramer(rw, rw),
		nextID:    1,
		exchanges: make(map[uint32]*h2Exchange),
	}
	s.fr.ReadMetaHeaders = hpack.NewDecoder(4096, nil)
	s.henc = hpack.NewEncoder(&s.hbuf)
	return s
}

func (s *h2Session) roundTrip(ctx context.Context, req *httpcore.Request) (*httpcore.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rw.ctx = ctx

	if !s.started {
		if err := s.stream.Write(ctx, []byte(http2.ClientPreface)); err != nil {
			return nil, fmt.Errorf("send preface: %w", httpcore.ErrConnectionClosed)
		}
		if err := s.fr.WriteSettings(); err != nil {
			return nil, fmt.Errorf("send settings: %w", httpcore.ErrConnectionClosed)
		}
		s.started = true
	}

	id := s.nextID
	s.nextID += 2
	ex := &h2Exchange{}
	s.exchanges[id] = ex
	s.logger.Debug("stream opened", "stream_id", id, "method", req.Method, "target", req.URL.RequestTarget())

	body, err := req.Body.ReadAll()
	if err != nil {
		return nil, err
	}
	if err := s.writeRequest(id, req, len(body) > 0); err != nil {
		delete(s.exchanges, id)
		return nil, fmt.Errorf("send headers: %w", httpcore.ErrConnectionClosed)
	}
	if len(body) > 0 {
		if err := s.fr.WriteData(id, true, body); err != nil {
			delete(s.exchanges, id)
			return nil, fmt.Errorf("send body: %w", httpcore.ErrConnectionClosed)
		}
	}

	if err := s.readUntilDone(ex); err != nil {
		delete(s.exchanges, id)
		return nil, err
	}
	delete(s.exchanges, id)

	return &httpcore.Response{
		StatusCode: ex.status,
		Headers:    ex.headers,
		Body:       ex.body.Bytes(),
		Request:    req,
	}, nil
}

func (s *h2Session) writeRequest(id uint32, req *httpcore.Request, hasBody bool) error {
	s.hbuf.Reset()
	s.henc.WriteField(hpack.HeaderField{Name: ":method", Value: req.Method})
	s.henc.WriteField(hpack.HeaderField{Name: ":scheme", Value: req.URL.Scheme()})
	s.henc.WriteField(hpack.HeaderField{Name: ":authority", Value: req.URL.Host()})
	s.henc.WriteField(hpack.HeaderField{Name: ":path", Value: req.URL.RequestTarget()})
	for _, f := range req.Headers.Fields() {
		s.henc.WriteField(hpack.HeaderField{Name: strings.ToLower(f.Key), Value: f.Value})
	}
	if cookie := req.Cookies.HeaderValue(); cookie != "" {
		s.henc.WriteField(hpack.HeaderField{Name: "cookie", Value: cookie})
	}
	return s.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      id,
		BlockFragment: s.hbuf.Bytes(),
		EndHeaders:    true,
		EndStream:     !hasBody,
	})
}

// readUntilDone pumps inbound frames, routing each to its exchange,
// until ex has seen the end of its stream.
func (s *h2Session) readUntilDone(ex *h2Exchange) error {
	for !ex.done {
		frame, err := s.fr.ReadFrame()
		if err != nil {
			return fmt.Errorf("read frame: %w", httpcore.ErrConnectionClosed)
		}
		if err := s.handleFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func (s *h2Session) handleFrame(frame http2.Frame) error {
	switch f := frame.(type) {
	case *http2.MetaHeadersFrame:
		ex, ok := s.exchanges[f.StreamID]
		if !ok {
			return fmt.Errorf("headers for unknown stream %d: %w", f.StreamID, httpcore.ErrProtocolViolation)
		}
		for _, field := range f.Fields {
			if field.Name == ":status" {
				code, err := strconv.Atoi(field.Value)
				if err != nil {
					return fmt.Errorf("bad :status %q: %w", field.Value, httpcore.ErrProtocolViolation)
				}
				ex.status = code
				continue
			}
			if !strings.HasPrefix(field.Name, ":") {
				ex.headers.Add(field.Name, field.Value)
			}
		}
		if f.StreamEnded() {
			ex.done = true
		}
	case *http2.DataFrame:
		ex, ok := s.exchanges[f.StreamID]
		if !ok {
			return fmt.Errorf("data for unknown stream %d: %w", f.StreamID, httpcore.ErrProtocolViolation)
		}
		ex.body.Write(f.Data())
		if f.StreamEnded() {
			ex.done = true
		}
	case *http2.SettingsFrame:
		if !f.IsAck() {
			return s.fr.WriteSettingsAck()
		}
	case *http2.PingFrame:
		if !f.IsAck() {
			return s.fr.WritePing(true, f.Data)
		}
	case *http2.GoAwayFrame:
		return fmt.Errorf("goaway from peer: %w", httpcore.ErrConnectionClosed)
	}
	return nil
}

// streamRW adapts a backend.Stream to io.Reader/io.Writer for the
// framer, carrying the context of the exchange currently driving the
// codec.
type streamRW struct {
	stream backend.Stream
	ctx    context.Context
}

func (rw *streamRW) Read(p []byte) (int, error) {
	ctx := rw.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return rw.stream.Read(ctx, p)
}

func (rw *streamRW) Write(p []byte) (int, error) {
	ctx := rw.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := rw.stream.Write(ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
