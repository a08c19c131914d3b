// Package metrics provides Prometheus metrics for the fairway board service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Recompute pipeline
	recomputeRequests *prometheus.CounterVec
	recomputeCoalesce prometheus.Counter
	recomputes        *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	rankingLatency    prometheus.Histogram
	rankedEntries     *prometheus.GaugeVec
	boardStale        prometheus.Gauge

	// Live channel
	channelState        prometheus.Gauge
	strategySwitches    *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	notificationsDup    prometheus.Counter
	debounceCollapsed   prometheus.Counter
	reconnectAttempts   prometheus.Counter
	pollTicks           prometheus.Counter
	pagerAdvances       prometheus.Counter
	pagerWraps          prometheus.Counter
	classificationRuns  prometheus.Counter
	classificationRules *prometheus.CounterVec
	bulkSubmits         *prometheus.CounterVec
	bulkAssigned        prometheus.Counter
	bulkErrors          prometheus.Counter

	// Upstream REST
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fairway",
		subsystem:        "board",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.recomputeRequests = m.counterVec("recompute_requests_total", "Recompute triggers by source", "source")
	m.recomputeCoalesce = m.counter("recompute_coalesced_total", "Triggers folded into an already pending recompute")
	m.recomputes = m.counterVec("recomputes_total", "Finished recomputes by outcome", "outcome")
	m.recomputeDuration = m.histogram("recompute_duration_milliseconds", "Fetch plus rank duration in milliseconds")
	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Pure ranking duration in milliseconds")
	m.rankedEntries = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ranked_entries", Help: "Entries on the last published board by view",
	}, []string{"view"})
	m.boardStale = m.gauge("stale", "1 when the board is serving the last good list after a failed fetch")

	m.channelState = m.gauge("channel_state", "Live channel state: 0 disconnected, 1 connecting, 2 connected")
	m.strategySwitches = m.counterVec("channel_strategy_switches_total", "Switches between push and poll strategies", "strategy")
	m.notifications = m.counterVec("notifications_total", "Recognized change notifications by kind", "kind")
	m.notificationsDup = m.counter("notifications_duplicate_total", "Notifications dropped as replays")
	m.debounceCollapsed = m.counter("debounce_collapsed_total", "Notifications collapsed into a pending debounce window")
	m.reconnectAttempts = m.counter("reconnect_attempts_total", "Push channel connection attempts")
	m.pollTicks = m.counter("poll_ticks_total", "Fallback poll ticks")

	m.pagerAdvances = m.counter("pager_advances_total", "Pager page advances")
	m.pagerWraps = m.counter("pager_wraps_total", "Pager wraps back to the first page")

	m.classificationRuns = m.counter("classification_runs_total", "Division classification runs")
	m.classificationRules = m.counterVec("classification_outcomes_total", "Plan entries by matching rule", "rule")
	m.bulkSubmits = m.counterVec("bulk_submits_total", "Bulk assignment submissions by outcome", "outcome")
	m.bulkAssigned = m.counter("bulk_assigned_total", "Participants assigned by the backend")
	m.bulkErrors = m.counter("bulk_errors_total", "Per-participant assignment errors")

	m.upstreamRequests = m.counterVec("upstream_requests_total", "Upstream REST calls", "endpoint", "status")
	m.upstreamDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "upstream_request_duration_milliseconds", Help: "Upstream REST latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint"})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordRecomputeRequest counts a trigger by source (push, poll, startup, manual).
func RecordRecomputeRequest(source string) { globalManager.recomputeRequests.WithLabelValues(source).Inc() }

// RecordRecomputeCoalesced counts a trigger folded into a pending recompute.
func RecordRecomputeCoalesced() { globalManager.recomputeCoalesce.Inc() }

// RecordRecompute counts a finished recompute and its duration.
func RecordRecompute(outcome string, durationMs float64) {
	globalManager.recomputes.WithLabelValues(outcome).Inc()
	globalManager.recomputeDuration.Observe(durationMs)
}

// RecordRankingLatency observes the pure ranking duration.
func RecordRankingLatency(ms float64) { globalManager.rankingLatency.Observe(ms) }

// UpdateRankedEntries sets the published entry count for a view.
func UpdateRankedEntries(view string, n int) {
	globalManager.rankedEntries.WithLabelValues(view).Set(float64(n))
}

// UpdateBoardStale flags whether the board serves stale data.
func UpdateBoardStale(stale bool) {
	if stale {
		globalManager.boardStale.Set(1)
		return
	}
	globalManager.boardStale.Set(0)
}

// UpdateChannelState records the live channel state ordinal.
func UpdateChannelState(state int) { globalManager.channelState.Set(float64(state)) }

// RecordStrategySwitch counts a switch to strategy (push or poll).
func RecordStrategySwitch(strategy string) {
	globalManager.strategySwitches.WithLabelValues(strategy).Inc()
}

// RecordNotification counts a recognized notification.
func RecordNotification(kind string) { globalManager.notifications.WithLabelValues(kind).Inc() }

// RecordNotificationDuplicate counts a replayed notification.
func RecordNotificationDuplicate() { globalManager.notificationsDup.Inc() }

// RecordDebounceCollapsed counts a notification absorbed by the debounce window.
func RecordDebounceCollapsed() { globalManager.debounceCollapsed.Inc() }

// RecordReconnectAttempt counts a push connection attempt.
func RecordReconnectAttempt() { globalManager.reconnectAttempts.Inc() }

// RecordPollTick counts a fallback poll tick.
func RecordPollTick() { globalManager.pollTicks.Inc() }

// RecordPagerAdvance counts a pager tick that moved the window.
func RecordPagerAdvance(wrapped bool) {
	globalManager.pagerAdvances.Inc()
	if wrapped {
		globalManager.pagerWraps.Inc()
	}
}

// RecordClassification counts a run and its per-rule outcomes.
func RecordClassification(byRule map[string]int) {
	globalManager.classificationRuns.Inc()
	for rule, n := range byRule {
		globalManager.classificationRules.WithLabelValues(rule).Add(float64(n))
	}
}

// RecordBulkSubmit counts a bulk submission outcome (success, partial, failed).
func RecordBulkSubmit(outcome string, assigned, errs int) {
	globalManager.bulkSubmits.WithLabelValues(outcome).Inc()
	globalManager.bulkAssigned.Add(float64(assigned))
	globalManager.bulkErrors.Add(float64(errs))
}

// RecordUpstreamRequest counts an upstream call and its latency.
func RecordUpstreamRequest(endpoint, status string, durationMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	globalManager.upstreamDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
