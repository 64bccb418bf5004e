package mock

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/hpack"

	"github.com/toppk/httpx/packages/httpcore"
)

// h2client is a minimal frame-level client for exercising the server.
type h2client struct {
	t      *testing.T
	server *H2Server
	wire   bytes.Buffer // frames we are about to send
	fr     *http2.Framer
	henc   *hpack.Encoder
	hbuf   bytes.Buffer
}

func newH2Client(t *testing.T, handler Handler) *h2client {
	c := &h2client{t: t, server: NewH2Server(handler, nil)}
	c.fr = http2.NewFramer(&c.wire, nil)
	c.henc = hpack.NewEncoder(&c.hbuf)
	require.NoError(t, c.server.Write(context.Background(), []byte(http2.ClientPreface)))
	require.NoError(t, c.fr.WriteSettings())
	c.flush()
	return c
}

// flush sends the accumulated frames to the server.
func (c *h2client) flush() error {
	data := c.wire.Bytes()
	c.wire.Reset()
	return c.server.Write(context.Background(), data)
}

func (c *h2client) headerBlock(fields ...hpack.HeaderField) []byte {
	c.hbuf.Reset()
	for _, f := range fields {
		require.NoError(c.t, c.henc.WriteField(f))
	}
	return c.hbuf.Bytes()
}

func (c *h2client) request(streamID uint32, method, path string, body []byte) error {
	block := c.headerBlock(
		hpack.HeaderField{Name: ":method", Value: method},
		hpack.HeaderField{Name: ":scheme", Value: "https"},
		hpack.HeaderField{Name: ":authority", Value: "example.org"},
		hpack.HeaderField{Name: ":path", Value: path},
	)
	require.NoError(c.t, c.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID:      streamID,
		BlockFragment: block,
		EndHeaders:    true,
		EndStream:     len(body) == 0,
	}))
	if len(body) > 0 {
		require.NoError(c.t, c.fr.WriteData(streamID, true, body))
	}
	return c.flush()
}

// responses decodes everything the server has buffered, returning
// status and body per stream id.
func (c *h2client) responses() map[uint32]struct {
	status string
	body   []byte
} {
	var raw bytes.Buffer
	buf := make([]byte, 1024)
	for {
		n, err := c.server.Read(context.Background(), buf)
		raw.Write(buf[:n])
		if err != nil {
			break
		}
	}

	out := map[uint32]struct {
		status string
		body   []byte
	}{}
	fr := http2.NewFramer(nil, &raw)
	fr.ReadMetaHeaders = hpack.NewDecoder(4096, nil)
	for {
		f, err := fr.ReadFrame()
		if err != nil {
			break
		}
		switch f := f.(type) {
		case *http2.MetaHeadersFrame:
			entry := out[f.StreamID]
			entry.status = f.PseudoValue("status")
			out[f.StreamID] = entry
		case *http2.DataFrame:
			entry := out[f.StreamID]
			entry.body = append(entry.body, f.Data()...)
			out[f.StreamID] = entry
		}
	}
	return out
}

func echoHandler(req *httpcore.Request) *httpcore.Response {
	content, _ := req.Body.ReadAll()
	body := []byte(req.Method + " " + req.URL.Path() + " " + string(content))
	resp := &httpcore.Response{StatusCode: 200, Body: body}
	resp.Headers.Set("Content-Type", "text/plain")
	return resp
}

func TestH2Server_ReconstructsRequest(t *testing.T) {
	var seen *httpcore.Request
	c := newH2Client(t, func(req *httpcore.Request) *httpcore.Response {
		seen = req
		return echoHandler(req)
	})

	require.NoError(t, c.request(1, "POST", "/submit?x=1", []byte("<data>")))

	require.NotNil(t, seen)
	assert.Equal(t, "POST", seen.Method)
	assert.Equal(t, "https://example.org/submit?x=1", seen.URL.String())
	content, err := seen.Body.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte("<data>"), content)

	resp := c.responses()[1]
	assert.Equal(t, "200", resp.status)
	assert.Equal(t, "POST /submit <data>", string(resp.body))
}

func TestH2Server_MultipleStreamsOneConnection(t *testing.T) {
	c := newH2Client(t, echoHandler)

	require.NoError(t, c.request(1, "GET", "/1", nil))
	require.NoError(t, c.request(3, "GET", "/2", nil))
	require.NoError(t, c.request(5, "GET", "/3", nil))

	got := c.responses()
	assert.Equal(t, "GET /1 ", string(got[1].body))
	assert.Equal(t, "GET /2 ", string(got[3].body))
	assert.Equal(t, "GET /3 ", string(got[5].body))
}

func TestH2Server_DataBeforeHeadersIsViolation(t *testing.T) {
	c := newH2Client(t, echoHandler)

	require.NoError(t, c.fr.WriteData(1, true, []byte("orphan")))
	err := c.flush()
	assert.ErrorIs(t, err, httpcore.ErrProtocolViolation)

	// The connection is poisoned for everything that follows.
	err = c.request(3, "GET", "/", nil)
	assert.ErrorIs(t, err, httpcore.ErrProtocolViolation)
}

func TestH2Server_StreamReuseBeforeCompletionIsViolation(t *testing.T) {
	c := newH2Client(t, echoHandler)

	// Open stream 1 without ending it, then open it again.
	block := c.headerBlock(
		hpack.HeaderField{Name: ":method", Value: "POST"},
		hpack.HeaderField{Name: ":scheme", Value: "https"},
		hpack.HeaderField{Name: ":authority", Value: "example.org"},
		hpack.HeaderField{Name: ":path", Value: "/"},
	)
	require.NoError(t, c.fr.WriteHeaders(http2.HeadersFrameParam{
		StreamID: 1, BlockFragment: block, EndHeaders: true,
	}))
	require.NoError(t, c.flush())

	err := c.request(1, "GET", "/", nil)
	assert.ErrorIs(t, err, httpcore.ErrProtocolViolation)
}

func TestH2Server_BadPrefaceIsViolation(t *testing.T) {
	s := NewH2Server(echoHandler, nil)
	err := s.Write(context.Background(), []byte("GET / HTTP/1.1\r\nHost: example\r\n\r\n"))
	assert.ErrorIs(t, err, httpcore.ErrProtocolViolation)
}

func TestH2Server_DropFlag(t *testing.T) {
	s := NewH2Server(echoHandler, nil)
	assert.False(t, s.IsConnectionDropped())
	s.DropConnection()
	assert.True(t, s.IsConnectionDropped())
}

func TestH2Server_EmptyReadReturnsEOF(t *testing.T) {
	s := NewH2Server(echoHandler, nil)
	n, err := s.Read(context.Background(), make([]byte, 16))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}
