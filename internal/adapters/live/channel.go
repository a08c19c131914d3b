// Package live keeps the board informed about upstream score changes.
//
// A Channel prefers a push connection and degrades to fixed-interval
// polling whenever push is unavailable. Reconnection continues in the
// background with exponential backoff, and the channel switches back to
// push as soon as a dial succeeds. Push notifications are debounced so a
// burst of changes produces a single refresh trigger.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/okian/fairway/internal/domain/dedupe"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

// Trigger sources emitted by the channel.
const (
	SourcePush = "push"
	SourcePoll = "poll"
)

// Strategy names.
const (
	StrategyPush = "push"
	StrategyPoll = "poll"
)

const (
	defaultDebounce       = 500 * time.Millisecond
	defaultReconnectStart = time.Second
	defaultReconnectMax   = time.Minute
)

// State is the push connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Sink receives refresh triggers.
type Sink interface {
	Trigger(ctx context.Context, source string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, source string)

// Trigger calls f.
func (f SinkFunc) Trigger(ctx context.Context, source string) { f(ctx, source) }

// Status is a point-in-time view of the channel.
type Status struct {
	State     State
	Strategy  string
	Pending   bool
	Attempts  int
	// Remembered is the number of notification IDs held for de-duplication.
	Remembered int
	LastError  string
}

// Channel is the live update channel.
type Channel struct {
	sink   Sink
	push   Dialer
	poll   PollStrategy
	dedupe dedupe.Deduper
	logger logger.Logger

	debounce       time.Duration
	reconnectStart time.Duration
	reconnectMax   time.Duration

	mu         sync.Mutex
	state      State
	strategy   string
	attempts   int
	lastErr    string
	timer      *time.Timer
	generation uint64
	pendingIDs []string
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates a channel delivering triggers to sink. Without WithPush the
// channel only polls.
func New(sink Sink, opts ...Option) *Channel {
	c := &Channel{
		sink:           sink,
		poll:           PollStrategy{Interval: DefaultPollInterval},
		debounce:       defaultDebounce,
		reconnectStart: defaultReconnectStart,
		reconnectMax:   defaultReconnectMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dedupe == nil {
		c.dedupe = dedupe.New()
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("live")
	}
	return c
}

// Run drives the channel until ctx is done.
func (c *Channel) Run(ctx context.Context) error {
	defer func() {
		c.stopPoll()
		c.cancelDebounce(ctx)
		c.setState(Disconnected)
	}()

	if c.push == nil {
		c.startPoll(ctx)
		<-ctx.Done()
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.reconnectStart
	b.MaxInterval = c.reconnectMax
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		c.setState(Connecting)
		metrics.RecordReconnectAttempt()
		conn, err := c.push.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.dialFailed(ctx, err)
			if !sleep(ctx, next(b)) {
				return nil
			}
			continue
		}

		b.Reset()
		c.connected(ctx)
		err = c.consume(ctx, conn)
		c.disconnected(ctx, err)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Status reports the current state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:      c.state,
		Strategy:   c.strategy,
		Pending:    c.timer != nil,
		Attempts:   c.attempts,
		Remembered: c.dedupe.Size(),
		LastError:  c.lastErr,
	}
}

func (c *Channel) consume(ctx context.Context, conn Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		n, err := conn.Read()
		if errors.Is(err, ErrMalformed) {
			c.logger.Debug(ctx, "skipping push frame", logger.Error(err))
			continue
		}
		if err != nil {
			_ = conn.Close()
			return err
		}
		c.handle(ctx, n)
	}
}

func (c *Channel) handle(ctx context.Context, n model.Notification) {
	if !n.Kind.Recognized() {
		c.logger.Debug(ctx, "ignoring notification", logger.String("event", string(n.Kind)))
		return
	}
	if n.ID != "" && c.dedupe.SeenAndRecord(ctx, n.ID) {
		metrics.RecordNotificationDuplicate()
		return
	}
	metrics.RecordNotification(string(n.Kind))
	c.schedule(ctx, n.ID)
}

// schedule arms the debounce timer or folds n into the armed one.
func (c *Channel) schedule(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != "" {
		c.pendingIDs = append(c.pendingIDs, id)
	}
	if c.timer != nil {
		metrics.RecordDebounceCollapsed()
		return
	}
	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(ctx, gen) })
}

func (c *Channel) fire(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.pendingIDs = nil
	c.generation++
	c.mu.Unlock()

	c.sink.Trigger(ctx, SourcePush)
}

// cancelDebounce drops a pending trigger. IDs folded into it are
// forgotten so a replay after reconnect is honoured.
func (c *Channel) cancelDebounce(ctx context.Context) {
	c.mu.Lock()
	if c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer.Stop()
	c.timer = nil
	c.generation++
	ids := c.pendingIDs
	c.pendingIDs = nil
	c.mu.Unlock()

	for _, id := range ids {
		c.dedupe.Forget(ctx, id)
	}
}

func (c *Channel) connected(ctx context.Context) {
	c.stopPoll()
	c.mu.Lock()
	c.attempts = 0
	c.lastErr = ""
	c.mu.Unlock()
	c.setState(Connected)
	c.switchTo(ctx, StrategyPush)
}

func (c *Channel) disconnected(ctx context.Context, err error) {
	c.cancelDebounce(ctx)
	c.setState(Disconnected)
	if ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	if err != nil {
		c.lastErr = err.Error()
	}
	c.mu.Unlock()
	c.logger.Warn(ctx, "push channel lost, polling until reconnected", logger.Error(err))
	c.startPoll(ctx)
}

func (c *Channel) dialFailed(ctx context.Context, err error) {
	c.setState(Disconnected)
	c.mu.Lock()
	c.attempts++
	attempts := c.attempts
	c.lastErr = err.Error()
	c.mu.Unlock()

	if attempts == 1 {
		c.logger.Warn(ctx, "push channel unavailable, polling", logger.Error(err))
	} else {
		c.logger.Debug(ctx, "push reconnect failed", logger.Int("attempt", attempts), logger.Error(err))
	}
	c.startPoll(ctx)
}

func (c *Channel) startPoll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pollCancel != nil {
		return
	}
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.pollCancel, c.pollDone = cancel, done
	go func() {
		defer close(done)
		c.poll.Run(pctx, c.sink)
	}()
	c.strategy = StrategyPoll
	metrics.RecordStrategySwitch(StrategyPoll)
}

func (c *Channel) stopPoll() {
	c.mu.Lock()
	cancel, done := c.pollCancel, c.pollDone
	c.pollCancel, c.pollDone = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Channel) switchTo(ctx context.Context, strategy string) {
	c.mu.Lock()
	prev := c.strategy
	c.strategy = strategy
	c.mu.Unlock()
	if prev != strategy {
		metrics.RecordStrategySwitch(strategy)
		c.logger.Info(ctx, "live strategy", logger.String("strategy", strategy))
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	metrics.UpdateChannelState(int(s))
}

func next(b backoff.BackOff) time.Duration {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return defaultReconnectMax
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
