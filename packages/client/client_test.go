package client

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toppk/httpx/packages/backend"
	"github.com/toppk/httpx/packages/httpcore"
	"github.com/toppk/httpx/packages/mock"
)

// app is the test origin: an echo endpoint plus a short redirect chain.
func app(req *httpcore.Request) *httpcore.Response {
	switch req.URL.Path() {
	case "/redirect":
		resp := &httpcore.Response{StatusCode: httpcore.StatusSeeOther}
		resp.Headers.Set("Location", "/target")
		return resp
	case "/hop1":
		resp := &httpcore.Response{StatusCode: httpcore.StatusFound}
		resp.Headers.Set("Location", "/hop2")
		return resp
	case "/hop2":
		resp := &httpcore.Response{StatusCode: httpcore.StatusFound}
		resp.Headers.Set("Location", "/target")
		return resp
	case "/temporary":
		resp := &httpcore.Response{StatusCode: httpcore.StatusTemporaryRedirect}
		resp.Headers.Set("Location", "/target")
		return resp
	default:
		content, _ := req.Body.ReadAll()
		payload, _ := json.Marshal(map[string]string{
			"method":        req.Method,
			"path":          req.URL.Path(),
			"body":          string(content),
			"authorization": req.Headers.Get("authorization"),
			"user-agent":    req.Headers.Get("user-agent"),
			"cookie":        req.Headers.Get("cookie"),
		})
		resp := &httpcore.Response{StatusCode: 200, Body: payload}
		resp.Headers.Set("Content-Type", "application/json")
		return resp
	}
}

func echoField(t *testing.T, resp *httpcore.Response, key string) string {
	t.Helper()
	var got map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	return got[key]
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *mock.Backend) {
	t.Helper()
	mb := mock.NewBackend(app)
	c := New(append([]Option{WithBackend(mb)}, opts...)...)
	t.Cleanup(func() { c.Close() })
	return c, mb
}

func TestClient_Get(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Get(context.Background(), "https://example.org/hello")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "GET", echoField(t, resp, "method"))
	assert.Equal(t, "/hello", echoField(t, resp, "path"))
}

func TestClient_PostBody(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Post(context.Background(), "https://example.org/submit",
		WithBody([]byte("hello")), WithHeader("Content-Type", "text/plain"))
	require.NoError(t, err)
	assert.Equal(t, "hello", echoField(t, resp, "body"))
}

func TestClient_FollowsRedirectChain(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Get(context.Background(), "https://example.org/hop1")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "/target", echoField(t, resp, "path"))
	require.Len(t, resp.History, 2)
	assert.Equal(t, httpcore.StatusFound, resp.History[0].StatusCode)
	assert.Equal(t, "https://example.org/hop1", resp.History[0].URL().String())
}

func TestClient_RedirectDropsBodyOnSeeOther(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Post(context.Background(), "https://example.org/redirect",
		WithBody([]byte("form-data")))
	require.NoError(t, err)
	assert.Equal(t, "GET", echoField(t, resp, "method"))
	assert.Equal(t, "", echoField(t, resp, "body"))
}

func TestClient_PerRequestRedirectOverride(t *testing.T) {
	c, _ := newTestClient(t)
	resp, err := c.Get(context.Background(), "https://example.org/redirect",
		AllowRedirects(false))
	require.NoError(t, err)
	assert.Equal(t, httpcore.StatusSeeOther, resp.StatusCode)
	require.NotNil(t, resp.Next)

	final, err := resp.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, final.StatusCode)
	assert.Equal(t, "/target", echoField(t, final, "path"))
}

func TestClient_StreamedBodyCannotFollowRedirect(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Post(context.Background(), "https://example.org/temporary",
		WithStreamBody(strings.NewReader("one-shot")))
	assert.ErrorIs(t, err, httpcore.ErrRedirectBodyUnavailable)
}

func TestClient_BasicAuth(t *testing.T) {
	c, _ := newTestClient(t, WithBasicAuth("tomchristie", "password123"))
	resp, err := c.Get(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "Basic dG9tY2hyaXN0aWU6cGFzc3dvcmQxMjM=", echoField(t, resp, "authorization"))
}

func TestClient_CustomAuth(t *testing.T) {
	c, _ := newTestClient(t, WithAuth(func(req *httpcore.Request) *httpcore.Request {
		req.Headers.Set("Authorization", "Bearer token-1")
		return req
	}))
	resp, err := c.Get(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-1", echoField(t, resp, "authorization"))
}

func TestClient_DefaultHeadersAndCookies(t *testing.T) {
	c, _ := newTestClient(t,
		WithDefaultHeader("User-Agent", "httpx-test"),
		WithCookies(httpcore.Cookies{"session": "s1"}))
	resp, err := c.Get(context.Background(), "https://example.org/",
		WithCookie("trace", "t1"))
	require.NoError(t, err)
	assert.Equal(t, "httpx-test", echoField(t, resp, "user-agent"))
	assert.Equal(t, "session=s1; trace=t1", echoField(t, resp, "cookie"))
}

func TestClient_ReconnectIsInvisible(t *testing.T) {
	c, mb := newTestClient(t)

	_, err := c.Get(context.Background(), "https://example.org/a")
	require.NoError(t, err)

	mb.Server().DropConnection()

	resp, err := c.Get(context.Background(), "https://example.org/b")
	require.NoError(t, err)
	assert.Equal(t, "/b", echoField(t, resp, "path"))
}

func TestClient_RunsOnEitherScheduler(t *testing.T) {
	schedulers := map[string]backend.Backend{
		"net":   backend.NewNetBackend(),
		"group": backend.NewGroupBackend(context.Background()),
	}
	for name, inner := range schedulers {
		t.Run(name, func(t *testing.T) {
			mb := mock.NewBackend(app, mock.WithInner(inner))
			c := New(WithBackend(mb))
			defer c.Close()

			err := backend.RunBlocking(mb, func() error {
				resp, err := c.Get(context.Background(), "https://example.org/ping")
				if err != nil {
					return err
				}
				assert.Equal(t, "/ping", echoField(t, resp, "path"))
				return nil
			})
			require.NoError(t, err)
		})
	}
}
