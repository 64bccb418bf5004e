package bench

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toppk/httpx/packages/client"
	"github.com/toppk/httpx/packages/httpcore"
	"github.com/toppk/httpx/packages/mock"
)

func TestMetrics_Summarize(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Record(10*time.Millisecond, nil)
	m.Record(20*time.Millisecond, nil)
	m.Record(30*time.Millisecond, errors.New("boom"))
	m.Stop()

	s := m.Summarize()
	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(2), s.Success)
	assert.Equal(t, int64(1), s.Errors)
	assert.GreaterOrEqual(t, s.P99, s.P50)
	assert.GreaterOrEqual(t, s.Max, s.P99)
}

func TestRunner_Run(t *testing.T) {
	mb := mock.NewBackend(func(req *httpcore.Request) *httpcore.Response {
		return &httpcore.Response{StatusCode: 200, Body: []byte("ok")}
	})
	c := client.New(client.WithBackend(mb))
	defer c.Close()

	r := NewRunner(c, "GET", "https://example.org/ping",
		WithRate(200),
		WithDuration(200*time.Millisecond),
		WithConcurrency(4),
	)
	s, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, s.Total, int64(0))
	assert.Equal(t, s.Total, s.Success)
	assert.Zero(t, s.Errors)
}

func TestReporter_Report(t *testing.T) {
	var out bytes.Buffer
	r := NewReporter(WithWriter(&out), WithNoColor(true))
	r.Report(Summary{
		Total: 10, Success: 9, Errors: 1,
		Duration: time.Second, RPS: 10,
		P50: 5 * time.Millisecond, P90: 8 * time.Millisecond,
		P99: 9 * time.Millisecond, Max: 12 * time.Millisecond,
	})
	assert.Contains(t, out.String(), "Requests:  10")
	assert.Contains(t, out.String(), "p99:  9ms")
	assert.Contains(t, out.String(), "Errors:    1")
}
