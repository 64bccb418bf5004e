package backend

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// GroupBackend is the structured-concurrency scheduler: every background
// task belongs to one errgroup and is joined when the group is waited
// on. Request/response outcomes are identical to NetBackend; only task
// lifetime management differs.
type GroupBackend struct {
	group  *errgroup.Group
	logger hclog.Logger
}

// GroupOption configures a GroupBackend.
type GroupOption func(*GroupBackend)

// WithGroupLogger sets the backend logger.
func WithGroupLogger(l hclog.Logger) GroupOption {
	return func(b *GroupBackend) { b.logger = l }
}

// NewGroupBackend returns a structured backend whose tasks are bounded
// by ctx.
func NewGroupBackend(ctx context.Context, opts ...GroupOption) *GroupBackend {
	group, _ := errgroup.WithContext(ctx)
	b := &GroupBackend{group: group, logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *GroupBackend) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (b *GroupBackend) Connect(ctx context.Context, host string, port int, tlsConf *tls.Config, timeout time.Duration) (Stream, error) {
	b.logger.Debug("connecting", "host", host, "port", port, "tls", tlsConf != nil)
	return dialStream(ctx, host, port, tlsConf, timeout)
}

func (b *GroupBackend) Go(fn func() error) Task {
	b.group.Go(fn)
	return groupTask{group: b.group}
}

// Wait joins every background task started through the backend and
// returns the first error any of them produced.
func (b *GroupBackend) Wait() error {
	return b.group.Wait()
}

// groupTask joins the whole group: structured scheduling means a task
// handle cannot outlive its siblings.
type groupTask struct {
	group *errgroup.Group
}

func (t groupTask) Wait() error {
	return t.group.Wait()
}
