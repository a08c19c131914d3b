// Package queue carries recompute requests from trigger sources to the
// single recompute worker.
//
// The queue is bounded and never blocks the caller: a request arriving
// while the buffer is full is folded into the one already waiting, since
// the waiting run will fetch the newest upstream state anyway.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fairway/pkg/metrics"
)

const defaultCapacity = 1

// Trigger sources.
const (
	SourceStartup = "startup"
	SourcePush    = "push"
	SourcePoll    = "poll"
	SourceManual  = "manual"
)

// Request asks for one fetch-and-rank run.
type Request struct {
	ID          string
	Source      string
	RequestedAt time.Time
}

// Outcome describes what Enqueue did with a request.
type Outcome int

const (
	// Queued means a new run will start after the current one.
	Queued Outcome = iota
	// Coalesced means a run was already pending and absorbs this request.
	Coalesced
	// Rejected means the queue is closed or ctx was done.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Queued:
		return "queued"
	case Coalesced:
		return "coalesced"
	default:
		return "rejected"
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	Enqueue(ctx context.Context, source string) (Outcome, error)
	Dequeue(ctx context.Context) <-chan Request
	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a coalescing queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	return q
}

// Enqueue adds a request or folds it into a pending one.
func (q *InMemoryQueue) Enqueue(ctx context.Context, source string) (Outcome, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return Rejected, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Rejected, err
	}

	metrics.RecordRecomputeRequest(source)
	req := Request{ID: uuid.NewString(), Source: source, RequestedAt: q.now()}
	select {
	case q.requests <- req:
		return Queued, nil
	default:
		metrics.RecordRecomputeCoalesced()
		return Coalesced, nil
	}
}

// Dequeue returns the request channel, closed by Close. The channel is
// handed out directly so no request is held outside the buffer.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Request {
	return q.requests
}

// Len returns the number of pending requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.requests)
}

// Close stops accepting requests. Pending requests can still be drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
