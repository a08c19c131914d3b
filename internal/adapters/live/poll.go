package live

import (
	"context"
	"time"

	"github.com/okian/fairway/pkg/metrics"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// PollStrategy requests a refresh on a fixed interval.
type PollStrategy struct {
	Interval time.Duration
}

// Run triggers sink on every tick until ctx is done.
func (p PollStrategy) Run(ctx context.Context, sink Sink) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordPollTick()
			sink.Trigger(ctx, SourcePoll)
		}
	}
}
