package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
	"github.com/toppk/httpx/packages/mock"
)

// h1Listener is a minimal HTTP/1.1 origin echoing method and path,
// serving any number of requests per connection.
func h1Listener(t *testing.T) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveH1(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func serveH1(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		pending = append(pending, buf[:n]...)
		for {
			head, rest, ok := strings.Cut(string(pending), "\r\n\r\n")
			if !ok {
				break
			}
			lines := strings.Split(head, "\r\n")
			parts := strings.SplitN(lines[0], " ", 3)
			clen := 0
			for _, line := range lines[1:] {
				if k, v, _ := strings.Cut(line, ":"); strings.EqualFold(k, "Content-Length") {
					clen, _ = strconv.Atoi(strings.TrimSpace(v))
				}
			}
			if len(rest) < clen {
				break
			}
			pending = []byte(rest[clen:])
			body := parts[0] + " " + parts[1] + " " + rest[:clen]
			fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
		}
	}
}

func TestH1Session_RoundTrip(t *testing.T) {
	host, port := h1Listener(t)
	b := backend.NewNetBackend()
	conn := NewConnection(b, "http", host, port, nil, DefaultConnectTimeout, nil)
	defer conn.Close()

	req, err := httpcore.NewRequest("POST", fmt.Sprintf("http://%s:%d/upload", host, port))
	require.NoError(t, err)
	req.SetBody([]byte("payload"))

	resp, err := conn.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Headers.Get("Content-Type"))
	assert.Equal(t, "POST /upload payload", string(resp.Body))
}

func TestH1Session_ReusesConnection(t *testing.T) {
	host, port := h1Listener(t)
	b := backend.NewNetBackend()
	conn := NewConnection(b, "http", host, port, nil, DefaultConnectTimeout, nil)
	defer conn.Close()

	for _, path := range []string{"/1", "/2", "/3"} {
		req, err := httpcore.NewRequest("GET", fmt.Sprintf("http://%s:%d%s", host, port, path))
		require.NoError(t, err)
		resp, err := conn.Send(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "GET "+path+" ", string(resp.Body))
	}
}

func jsonEcho(req *httpcore.Request) *httpcore.Response {
	content, _ := req.Body.ReadAll()
	payload, _ := json.Marshal(map[string]string{
		"method": req.Method,
		"path":   req.URL.Path(),
		"body":   string(content),
		"cookie": req.Headers.Get("cookie"),
	})
	resp := &httpcore.Response{StatusCode: 200, Body: payload}
	resp.Headers.Set("Content-Type", "application/json")
	return resp
}

func TestPool_SendOverH2(t *testing.T) {
	mb := mock.NewBackend(jsonEcho)
	pool := NewPool(mb)
	defer pool.Close()

	req, err := httpcore.NewRequest("PUT", "https://example.org/resource")
	require.NoError(t, err)
	req.SetBody([]byte("v2"))
	req.SetCookie("session", "abc")

	resp, err := pool.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	assert.Equal(t, "PUT", got["method"])
	assert.Equal(t, "/resource", got["path"])
	assert.Equal(t, "v2", got["body"])
	assert.Equal(t, "session=abc", got["cookie"])
}

func TestPool_MultipleRequestsShareConnection(t *testing.T) {
	mb := mock.NewBackend(jsonEcho)
	pool := NewPool(mb)
	defer pool.Close()

	var first *mock.H2Server
	for i := 0; i < 3; i++ {
		req, err := httpcore.NewRequest("GET", "https://example.org/item")
		require.NoError(t, err)
		_, err = pool.Send(context.Background(), req)
		require.NoError(t, err)
		if first == nil {
			first = mb.Server()
		}
	}
	// One dial served all three exchanges.
	assert.Same(t, first, mb.Server())
}

func TestPool_ReconnectsAfterDrop(t *testing.T) {
	mb := mock.NewBackend(jsonEcho)
	pool := NewPool(mb)
	defer pool.Close()

	req, err := httpcore.NewRequest("GET", "https://example.org/a")
	require.NoError(t, err)
	_, err = pool.Send(context.Background(), req)
	require.NoError(t, err)

	dropped := mb.Server()
	dropped.DropConnection()

	req2, err := httpcore.NewRequest("GET", "https://example.org/b")
	require.NoError(t, err)
	resp, err := pool.Send(context.Background(), req2)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotSame(t, dropped, mb.Server())
}

func TestConnection_TagsRequestID(t *testing.T) {
	var seen string
	mb := mock.NewBackend(func(req *httpcore.Request) *httpcore.Response {
		seen = req.Headers.Get("x-request-id")
		return &httpcore.Response{StatusCode: 200}
	})
	pool := NewPool(mb)
	defer pool.Close()

	req, err := httpcore.NewRequest("GET", "https://example.org/")
	require.NoError(t, err)
	_, err = pool.Send(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, seen)
}

func TestPool_DistinctOriginsDistinctConnections(t *testing.T) {
	mb := mock.NewBackend(jsonEcho)
	pool := NewPool(mb)
	defer pool.Close()

	for _, raw := range []string{"https://one.example.org/", "https://two.example.org/"} {
		req, err := httpcore.NewRequest("GET", raw)
		require.NoError(t, err)
		_, err = pool.Send(context.Background(), req)
		require.NoError(t, err)
	}

	pool.mu.Lock()
	n := len(pool.conns)
	pool.mu.Unlock()
	assert.Equal(t, 2, n)
}
