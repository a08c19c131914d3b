// Package worker runs recompute requests one at a time.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fairway/internal/adapters/mq/queue"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// Recompute outcomes reported to metrics.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Recomputer performs one fetch-and-rank run.
type Recomputer interface {
	Recompute(ctx context.Context, req queue.Request) error
}

// RecomputeFunc adapts a function to Recomputer.
type RecomputeFunc func(ctx context.Context, req queue.Request) error

// Recompute calls f.
func (f RecomputeFunc) Recompute(ctx context.Context, req queue.Request) error { return f(ctx, req) }

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Request
}

// Worker drains a queue serially.
type Worker interface {
	// Run processes requests until ctx is canceled, Shutdown is called,
	// or the queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the worker after the run in flight finishes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single consumer of a recompute queue. Because it
// handles one request at a time, at most one recompute is ever in flight.
type InMemoryWorker struct {
	queue      Queue
	recomputer Recomputer
	name       string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, r Recomputer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		recomputer: r,
		name:       "recompute-worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		// A pending shutdown wins over a request that is already queued.
		select {
		case <-w.shutdown:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, req); err != nil {
				w.logger.Warn(ctx, "recompute failed",
					logger.String("request_id", req.ID),
					logger.String("source", req.Source),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the loop and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, req queue.Request) error {
	start := time.Now()
	err := w.recomputer.Recompute(ctx, req)
	elapsed := float64(time.Since(start).Milliseconds())

	if err != nil {
		metrics.RecordRecompute(OutcomeFailed, elapsed)
		return fmt.Errorf("recompute %s: %w", req.ID, err)
	}
	metrics.RecordRecompute(OutcomeOK, elapsed)
	w.logger.Debug(ctx, "recompute finished",
		logger.String("request_id", req.ID),
		logger.String("source", req.Source),
		logger.Float64("duration_ms", elapsed),
		logger.Duration("queued_for", start.Sub(req.RequestedAt)),
	)
	return nil
}
