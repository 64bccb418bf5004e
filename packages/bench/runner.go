package bench

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/toppk/httpx/packages/client"
)

// Runner fires paced requests at one endpoint.
type Runner struct {
	client      *client.Client
	method      string
	url         string
	body        []byte
	rate        float64
	duration    time.Duration
	concurrency int
	logger      hclog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBody sets the request body sent on every request.
func WithBody(body []byte) RunnerOption {
	return func(r *Runner) { r.body = body }
}

// WithRate sets the target requests per second.
func WithRate(rps float64) RunnerOption {
	return func(r *Runner) { r.rate = rps }
}

// WithDuration sets how long the run lasts.
func WithDuration(d time.Duration) RunnerOption {
	return func(r *Runner) { r.duration = d }
}

// WithConcurrency caps in-flight requests.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = n }
}

// WithLogger sets the runner's logger.
func WithLogger(l hclog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner builds a runner issuing method requests to url through c.
func NewRunner(c *client.Client, method, url string, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:      c,
		method:      method,
		url:         url,
		rate:        10,
		duration:    30 * time.Second,
		concurrency: 50,
		logger:      hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run paces requests until the duration elapses or ctx is canceled,
// then returns the aggregate.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	limiter := rate.NewLimiter(rate.Limit(r.rate), 1)
	metrics := NewMetrics()

	runCtx, cancel := context.WithTimeout(ctx, r.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(r.concurrency)

	metrics.Start()
	for {
		if err := limiter.Wait(runCtx); err != nil {
			break // duration elapsed or caller canceled
		}
		g.Go(func() error {
			start := time.Now()
			var reqOpts []client.RequestOption
			if len(r.body) > 0 {
				reqOpts = append(reqOpts, client.WithBody(r.body))
			}
			resp, err := r.client.Do(gctx, r.method, r.url, reqOpts...)
			if err == nil && !resp.IsSuccess() {
				r.logger.Debug("non-2xx response", "status", resp.StatusCode)
			}
			metrics.Record(time.Since(start), err)
			return nil
		})
	}
	err := g.Wait()
	metrics.Stop()

	if ctx.Err() != nil {
		return metrics.Summarize(), ctx.Err()
	}
	return metrics.Summarize(), err
}
