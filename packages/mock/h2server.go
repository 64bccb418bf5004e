package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/toppk/httpx/packages/httpcore"
)

// Handler produces the response for one reconstructed request. It runs
// synchronously and must not retain the request beyond the call.
type Handler func(*httpcore.Request) *httpcore.Response

// H2Server terminates the server side of an HTTP/2 connection in
// memory. It maintains a correlation table from stream identifier to
// the exchange being accumulated: an entry is created by the HEADERS
// frame that opens the stream, grown by DATA frames, and removed
// exactly once when the stream ends, at which point the handler runs
// and its response is serialized back onto the same stream identifier.
//
// Stream identifiers map one-to-one onto exchanges: reusing an
// identifier whose exchange is still pending, or sending data for an
// unknown identifier, poisons the connection with a protocol violation.
type H2Server struct {
	handler Handler
	logger  hclog.Logger

	mu          sync.Mutex
	out         bytes.Buffer // wire bytes awaiting the client
	frameIn     bytes.Buffer // completed frames fed to the framer
	pending     []byte       // inbound bytes not yet forming a whole frame
	fr          *http2.Framer
	henc        *hpack.Encoder
	hbuf        bytes.Buffer
	streams     map[uint32]*exchange
	prefaceRead bool
	dropped     bool
	failed      error
}

type exchange struct {
	headers []hpack.HeaderField
	body    bytes.Buffer
}

// NewH2Server builds a server around handler.
func NewH2Server(handler Handler, logger hclog.Logger) *H2Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &H2Server{
		handler: handler,
		logger:  logger,
		streams: make(map[uint32]*exchange),
	}
	s.fr = http2.NewFramer(&s.out, &s.frameIn)
	s.fr.ReadMetaHeaders = hpack.NewDecoder(4096, nil)
	s.henc = hpack.NewEncoder(&s.hbuf)
	return s
}

// Stream interface

func (s *H2Server) ProtocolVersion() string { return "HTTP/2" }

func (s *H2Server) Close() error { return nil }

// IsConnectionDropped reports the drop flag set by DropConnection.
func (s *H2Server) IsConnectionDropped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// DropConnection marks the peer as gone. Clients that check liveness
// before reuse will discard this stream and reconnect.
func (s *H2Server) DropConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = true
}

// Read hands out buffered response bytes. The server produces output
// synchronously inside Write, so an empty buffer means no further bytes
// are coming for the frames received so far.
func (s *H2Server) Read(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out.Len() == 0 {
		if s.failed != nil {
			return 0, s.failed
		}
		return 0, io.EOF
	}
	n := copy(p, s.out.Bytes())
	s.out.Next(n)
	return n, nil
}

// Write feeds client wire bytes into the protocol state machine.
func (s *H2Server) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed != nil {
		return s.failed
	}
	s.pending = append(s.pending, data...)

	if !s.prefaceRead {
		if len(s.pending) < len(http2.ClientPreface) {
			return nil
		}
		if string(s.pending[:len(http2.ClientPreface)]) != http2.ClientPreface {
			return s.fail(fmt.Errorf("bad connection preface: %w", httpcore.ErrProtocolViolation))
		}
		s.pending = s.pending[len(http2.ClientPreface):]
		s.prefaceRead = true
		if err := s.fr.WriteSettings(); err != nil {
			return s.fail(err)
		}
	}

	for {
		frame, ok := s.nextFrame()
		if !ok {
			return nil
		}
		s.frameIn.Write(frame)
		f, err := s.fr.ReadFrame()
		if err != nil {
			return s.fail(fmt.Errorf("decode frame: %w", err))
		}
		if err := s.handleFrame(f); err != nil {
			return s.fail(err)
		}
	}
}

// nextFrame slices one complete frame off the pending buffer.
func (s *H2Server) nextFrame() ([]byte, bool) {
	if len(s.pending) < 9 {
		return nil, false
	}
	payload := int(s.pending[0])<<16 | int(s.pending[1])<<8 | int(s.pending[2])
	total := 9 + payload
	if len(s.pending) < total {
		return nil, false
	}
	frame := s.pending[:total]
	s.pending = s.pending[total:]
	return frame, true
}

func (s *H2Server) handleFrame(f http2.Frame) error {
	switch f := f.(type) {
	case *http2.MetaHeadersFrame:
		id := f.StreamID
		if _, exists := s.streams[id]; exists {
			return fmt.Errorf("stream %d reused before completion: %w", id, httpcore.ErrProtocolViolation)
		}
		rec := &exchange{headers: f.Fields}
		s.streams[id] = rec
		s.logger.Debug("stream opened", "stream_id", id)
		if f.StreamEnded() {
			return s.complete(id)
		}
	case *http2.DataFrame:
		rec, ok := s.streams[f.StreamID]
		if !ok {
			return fmt.Errorf("data for unknown stream %d: %w", f.StreamID, httpcore.ErrProtocolViolation)
		}
		rec.body.Write(f.Data())
		if f.StreamEnded() {
			return s.complete(f.StreamID)
		}
	case *http2.SettingsFrame:
		if !f.IsAck() {
			return s.fr.WriteSettingsAck()
		}
	case *http2.PingFrame:
		if !f.IsAck() {
			return s.fr.WritePing(true, f.Data)
		}
	}
	return nil
}

// complete pops the exchange for id, rebuilds the request, runs the
// handler and serializes its response.
func (s *H2Server) complete(id uint32) error {
	rec := s.streams[id]
	delete(s.streams, id)

	req, err := buildRequest(rec)
	if err != nil {
		return err
	}
	s.logger.Debug("request complete", "stream_id", id, "method", req.Method, "path", req.URL.Path())
	resp := s.handler(req)

	s.hbuf.Reset()
	s.henc.WriteField(hpack.HeaderField{Name: ":status", Value: strconv.Itoa(resp.StatusCode)})
	for _, field := range resp.Headers.Fields() {
		s.henc.WriteField(hpack.HeaderField{
			Name:  strings.ToLower(field.Key),
			Value: field.Value,
		})
	}
	if err := s.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      id,
		BlockFragment: s.hbuf.Bytes(),
		EndHeaders:    true,
	}); err != nil {
		return err
	}
	return s.fr.WriteData(id, true, resp.Body)
}

func buildRequest(rec *exchange) (*httpcore.Request, error) {
	var method, scheme, authority, path string
	headers := httpcore.Headers{}
	for _, f := range rec.headers {
		switch f.Name {
		case ":method":
			method = f.Value
		case ":scheme":
			scheme = f.Value
		case ":authority":
			authority = f.Value
		case ":path":
			path = f.Value
		default:
			if !strings.HasPrefix(f.Name, ":") {
				headers.Add(f.Name, f.Value)
			}
		}
	}
	u, err := httpcore.ParseURL(scheme + "://" + authority + path)
	if err != nil {
		return nil, err
	}
	return &httpcore.Request{
		Method:  method,
		URL:     u,
		Headers: headers,
		Body:    httpcore.NewBody(rec.body.Bytes()),
	}, nil
}

func (s *H2Server) fail(err error) error {
	s.logger.Error("connection failed", "error", err)
	s.failed = err
	return err
}
