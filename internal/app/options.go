package service

import (
	"time"

	"github.com/okian/fairway/internal/adapters/live"
	"github.com/okian/fairway/internal/domain/classify"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCriterion sets the score field used for ranking.
func WithCriterion(c model.Criterion) Option {
	return func(s *Service) {
		if c == model.CriterionGross || c == model.CriterionNet {
			s.criterion = c
		}
	}
}

// WithView selects the list the display pager scrolls.
func WithView(v ranking.View) Option {
	return func(s *Service) {
		if v == ranking.ViewLive || v == ranking.ViewFinal {
			s.view = v
		}
	}
}

// WithPageSize sets the number of rows per display page.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPageInterval sets how often the display pager advances.
func WithPageInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pageInterval = d
		}
	}
}

// WithTotalHoles sets the hole count that marks a round as complete.
func WithTotalHoles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.totalHoles = n
		}
	}
}

// WithDebounce sets the notification debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) { s.debounce = d }
}

// WithPollInterval sets the fallback poll period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithReconnectMax caps the push reconnect backoff.
func WithReconnectMax(d time.Duration) Option {
	return func(s *Service) { s.reconnectMax = d }
}

// WithDedupeSize bounds the notification replay cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPush enables push notifications through d. Without it the service
// polls.
func WithPush(d live.Dialer) Option {
	return func(s *Service) { s.push = d }
}

// WithClassifyOptions configures the division classifier.
func WithClassifyOptions(opts ...classify.Option) Option {
	return func(s *Service) { s.classifyOpts = append(s.classifyOpts, opts...) }
}

// WithDrainTimeout bounds how long Stop waits for the recompute in flight.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
