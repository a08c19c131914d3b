package live

import (
	"time"

	"github.com/okian/fairway/internal/domain/dedupe"
	"github.com/okian/fairway/pkg/logger"
)

// Option applies a configuration option to the Channel.
type Option func(*Channel)

// WithPush enables the push strategy.
func WithPush(d Dialer) Option {
	return func(c *Channel) { c.push = d }
}

// WithPollInterval sets the fallback polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.poll.Interval = d
		}
	}
}

// WithDebounce sets the window in which notifications collapse into one
// trigger.
func WithDebounce(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithReconnectBackoff sets the first and the longest wait between push
// dial attempts.
func WithReconnectBackoff(start, maxWait time.Duration) Option {
	return func(c *Channel) {
		if start > 0 {
			c.reconnectStart = start
		}
		if maxWait > 0 {
			c.reconnectMax = maxWait
		}
	}
}

// WithDeduper sets the notification ID window.
func WithDeduper(d dedupe.Deduper) Option {
	return func(c *Channel) {
		if d != nil {
			c.dedupe = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}
