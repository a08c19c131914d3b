// Package service wires the ranking pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/fairway/internal/adapters/live"
	"github.com/okian/fairway/internal/adapters/mq/queue"
	"github.com/okian/fairway/internal/adapters/mq/worker"
	"github.com/okian/fairway/internal/adapters/repository"
	"github.com/okian/fairway/internal/domain/assign"
	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/classify"
	"github.com/okian/fairway/internal/domain/dedupe"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Upstream is the external scoring and roster service.
type Upstream interface {
	FetchScorecards(ctx context.Context) ([]model.ScorecardSnapshot, error)
	assign.Roster
	assign.Backend
}

type failure struct {
	err error
	at  time.Time
}

// Service implements the API dependencies for the tournament board.
type Service struct {
	mu sync.RWMutex

	upstream  Upstream
	store     repository.Store
	submitter *assign.Submitter

	// Per-run components, rebuilt by Start.
	queue   *queue.InMemoryQueue
	worker  *worker.InMemoryWorker
	channel *live.Channel
	results chan board.Result
	fails   chan failure

	// Configuration
	criterion    model.Criterion
	view         ranking.View
	pageSize     int
	pageInterval time.Duration
	totalHoles   int
	debounce     time.Duration
	pollInterval time.Duration
	reconnectMax time.Duration
	dedupeSize   int
	drainTimeout time.Duration
	push         live.Dialer
	classifyOpts []classify.Option
	now          func() time.Time

	// State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	logger logger.Logger
}

// New constructs a Service reading from up.
func New(up Upstream, opts ...Option) *Service {
	s := &Service{
		upstream:     up,
		store:        repository.NewSnapshotStore(),
		criterion:    model.CriterionGross,
		view:         ranking.ViewLive,
		pageSize:     10,
		pageInterval: 10 * time.Second,
		totalHoles:   18,
		dedupeSize:   dedupe.DefaultMaxSize,
		drainTimeout: 5 * time.Second,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.submitter = assign.NewSubmitter(up, up,
		assign.WithClassifyOptions(s.classifyOpts...),
		assign.WithLogger(s.logger.Named("assign")),
	)
	return s
}

// Start builds the pipeline and runs it until Stop or ctx is done. A
// startup recompute is requested immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting tournament board service...")

	s.queue = queue.NewInMemoryQueue(queue.WithClock(s.now))
	s.worker = worker.NewInMemoryWorker(s.queue, worker.RecomputeFunc(s.recompute),
		worker.WithName("recompute"),
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.channel = live.New(live.SinkFunc(s.trigger), s.channelOptions()...)
	s.results = make(chan board.Result)
	s.fails = make(chan failure)
	s.done = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		s.worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return s.channel.Run(gctx)
	})
	state := board.New(board.WithView(s.view), board.WithPageSize(s.pageSize))
	g.Go(func() error {
		s.loop(gctx, state, s.results, s.fails)
		return nil
	})

	done := s.done
	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error(context.Background(), "service stopped with error", logger.Error(err))
		}
		close(done)
	}()

	if _, err := s.queue.Enqueue(ctx, queue.SourceStartup); err != nil {
		s.logger.Warn(ctx, "startup recompute not queued", logger.Error(err))
	}

	s.started = true
	s.logger.Info(ctx, "tournament board service started",
		logger.String("criterion", string(s.criterion)),
		logger.String("view", string(s.view)),
		logger.Int("pageSize", s.pageSize),
		logger.Duration("pageInterval", s.pageInterval),
		logger.Bool("push", s.push != nil),
	)
	return nil
}

func (s *Service) channelOptions() []live.Option {
	opts := []live.Option{
		live.WithDebounce(s.debounce),
		live.WithPollInterval(s.pollInterval),
		live.WithDeduper(dedupe.New(dedupe.WithMaxSize(s.dedupeSize))),
		live.WithLogger(s.logger.Named("live")),
	}
	if s.reconnectMax > 0 {
		opts = append(opts, live.WithReconnectBackoff(time.Second, s.reconnectMax))
	}
	if s.push != nil {
		opts = append(opts, live.WithPush(s.push))
	}
	return opts
}

// Stop lets the recompute in flight finish, bounded by the drain timeout,
// then cancels the pipeline and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tournament board service...")

	drainCtx, cancel := context.WithTimeout(ctx, s.drainTimeout)
	if err := s.worker.Shutdown(drainCtx); err != nil {
		s.logger.Warn(ctx, "recompute did not drain, cancelling", logger.Error(err))
	}
	cancel()

	s.cancel()
	_ = s.queue.Close()
	<-s.done

	s.started = false
	s.logger.Info(context.Background(), "tournament board service stopped")
}

// trigger is the live channel's sink.
func (s *Service) trigger(ctx context.Context, source string) {
	if s.queue.IsClosed() {
		return
	}
	outcome, err := s.queue.Enqueue(ctx, source)
	if err != nil {
		s.logger.Debug(ctx, "trigger dropped", logger.String("source", source), logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "trigger", logger.String("source", source), logger.String("outcome", outcome.String()))
}

// recompute fetches scorecards and ranks both views. The result or the
// failure is handed to the event loop; the worker never touches the board.
func (s *Service) recompute(ctx context.Context, req queue.Request) error {
	cards, err := s.upstream.FetchScorecards(ctx)
	if err != nil {
		s.post(ctx, nil, &failure{err: err, at: s.now()})
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	start := time.Now()
	res := board.Result{
		RunID:     req.ID,
		Criterion: s.criterion,
		Live:      ranking.Rank(cards, s.criterion),
		Final:     ranking.Rank(cards, s.criterion, ranking.Final()),
		Winners:   ranking.Winners(cards, s.criterion, 0, s.totalHoles),
		FetchedAt: s.now(),
	}
	metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)

	s.post(ctx, &res, nil)
	return nil
}

func (s *Service) post(ctx context.Context, res *board.Result, f *failure) {
	if res != nil {
		select {
		case s.results <- *res:
		case <-ctx.Done():
		}
		return
	}
	select {
	case s.fails <- *f:
	case <-ctx.Done():
	}
}

// loop is the only goroutine that touches state. Every change is
// published as a fresh snapshot.
func (s *Service) loop(ctx context.Context, state *board.State, results <-chan board.Result, fails <-chan failure) {
	ticker := time.NewTicker(s.pageInterval)
	defer ticker.Stop()

	s.store.Publish(ctx, state.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-results:
			state.ApplyResult(r)
			s.logger.Info(ctx, "board updated",
				logger.String("run_id", r.RunID),
				logger.Int("live", len(r.Live)),
				logger.Int("final", len(r.Final)),
				logger.Int("winners", len(r.Winners)),
			)
		case f := <-fails:
			state.ApplyFailure(f.err, f.at)
			s.logger.Warn(ctx, "scorecard fetch failed, keeping last standings", logger.Error(f.err))
		case <-ticker.C:
			advanced, wrapped := state.Tick()
			if !advanced {
				continue
			}
			metrics.RecordPagerAdvance(wrapped)
		}
		s.store.Publish(ctx, state.Snapshot())
	}
}

// Refresh requests a recompute out of band.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", ErrNotStarted
	}
	outcome, err := s.queue.Enqueue(ctx, queue.SourceManual)
	if err != nil {
		return "", err
	}
	return outcome.String(), nil
}

// Current returns the published board.
func (s *Service) Current(ctx context.Context) *board.Snapshot {
	return s.store.Current(ctx)
}

// Rank looks a participant up on the published board.
func (s *Service) Rank(ctx context.Context, view ranking.View, participantID string) (model.RankEntry, error) {
	return s.store.Rank(ctx, view, participantID)
}

// TopN returns the first n entries of view on the published board.
func (s *Service) TopN(ctx context.Context, view ranking.View, n int) ([]model.RankEntry, error) {
	return s.store.TopN(ctx, view, n)
}

// Count returns the number of entries in view on the published board.
func (s *Service) Count(ctx context.Context, view ranking.View) int {
	return s.store.Count(ctx, view)
}

// Plan classifies the roster without submitting anything.
func (s *Service) Plan(ctx context.Context, parentID string) (assign.Report, error) {
	return s.submitter.Plan(ctx, parentID)
}

// Apply classifies the roster and submits the plan.
func (s *Service) Apply(ctx context.Context, parentID string) (assign.Report, error) {
	return s.submitter.Apply(ctx, parentID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	snap := s.store.Current(ctx)
	stats := map[string]interface{}{
		"started":      s.started,
		"criterion":    string(s.criterion),
		"view":         string(s.view),
		"pageSize":     s.pageSize,
		"boardVersion": snap.Version,
		"stale":        snap.Stale,
		"liveEntries":  len(snap.Live),
		"finalEntries": len(snap.Final),
		"winners":      len(snap.Winners),
	}
	if !snap.UpdatedAt.IsZero() {
		stats["updatedAt"] = snap.UpdatedAt
	}
	if snap.LastError != "" {
		stats["lastError"] = snap.LastError
	}

	if s.started {
		st := s.channel.Status()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["workerRunning"] = running(s.worker.Done())
		stats["channel"] = map[string]interface{}{
			"state":      st.State.String(),
			"strategy":   st.Strategy,
			"pending":    st.Pending,
			"attempts":   st.Attempts,
			"remembered": st.Remembered,
			"lastError":  st.LastError,
		}
	}

	return stats
}

func running(done <-chan struct{}) bool {
	select {
	case <-done:
		return false
	default:
		return true
	}
}
