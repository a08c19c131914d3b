// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, .env, an optional YAML file and env vars.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TournamentID selects the event whose board is displayed.
	TournamentID string `koanf:"tournament_id"`

	// UpstreamURL is the base URL of the external scoring/roster service.
	UpstreamURL string `koanf:"upstream_url"`
	// UpstreamToken is sent as a bearer token on management calls.
	UpstreamToken string `koanf:"upstream_token"`
	// UpstreamTimeoutMS bounds a single upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`
	// UpstreamRPS caps upstream request rate; 0 disables the limiter.
	UpstreamRPS float64 `koanf:"upstream_rps"`

	// PushURL is the WebSocket endpoint of the change-notification channel.
	// Empty means poll only.
	PushURL string `koanf:"push_url"`
	// PushToken is attached at connect time for authenticated views.
	PushToken string `koanf:"push_token"`

	// Criterion is the score field used for ranking: gross or net.
	Criterion string `koanf:"criterion"`

	// PageSize and PageIntervalMS drive the display pager.
	PageSize       int `koanf:"page_size"`
	PageIntervalMS int `koanf:"page_interval_ms"`

	// DebounceMS collapses bursts of notifications into one recompute.
	DebounceMS int `koanf:"debounce_ms"`
	// PollIntervalMS is the fallback poll period when push is unavailable.
	PollIntervalMS int `koanf:"poll_interval_ms"`
	// ReconnectMaxMS caps the push reconnect backoff.
	ReconnectMaxMS int `koanf:"reconnect_max_ms"`

	// WinnersLimit is the default number of ranks on the winners view.
	WinnersLimit int `koanf:"winners_limit"`
	// TotalHoles marks a round as complete.
	TotalHoles int `koanf:"total_holes"`

	// DedupeSize bounds the notification replay cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DrainTimeoutMS bounds how long shutdown waits for a running recompute.
	DrainTimeoutMS int `koanf:"drain_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		UpstreamURL:       "http://localhost:9090",
		UpstreamTimeoutMS: 5000,
		UpstreamRPS:       5,
		Criterion:         "gross",
		PageSize:          10,
		PageIntervalMS:    10_000,
		DebounceMS:        500,
		PollIntervalMS:    30_000,
		ReconnectMaxMS:    60_000,
		WinnersLimit:      3,
		TotalHoles:        18,
		DedupeSize:        10_000,
		DrainTimeoutMS:    5_000,
	}
}

// Duration converts a millisecond setting to a time.Duration.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
