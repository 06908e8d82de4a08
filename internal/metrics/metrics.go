package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for mihrab.
type Metrics struct {
	registry                   *prometheus.Registry
	refreshDurationSeconds     prometheus.Histogram
	fetchErrorsTotal           prometheus.Counter
	cacheFallbacksTotal        prometheus.Counter
	staleResponsesDropped      prometheus.Counter
	notificationsTotal         *prometheus.CounterVec
	countdownRemainingSeconds  prometheus.Gauge
	countdownRingFraction      prometheus.Gauge
	lastSuccessfulRefreshGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		refreshDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mihrab_refresh_duration_seconds",
			Help:    "Duration of locate/fetch/resolve refresh cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		fetchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mihrab_fetch_errors_total",
			Help: "Total failed live prayer-time fetches.",
		}),
		cacheFallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mihrab_cache_fallbacks_total",
			Help: "Total refresh cycles served from the persisted snapshot.",
		}),
		staleResponsesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mihrab_stale_responses_dropped_total",
			Help: "Total refresh results discarded because a newer cycle had started.",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mihrab_notifications_total",
			Help: "Total window announcements by prayer and kind.",
		}, []string{"window", "kind"}),
		countdownRemainingSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mihrab_countdown_remaining_seconds",
			Help: "Seconds remaining until the next prayer boundary.",
		}),
		countdownRingFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mihrab_countdown_ring_fraction",
			Help: "Remaining fraction of the current prayer window, in [0, 1].",
		}),
		lastSuccessfulRefreshGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mihrab_last_successful_refresh_timestamp",
			Help: "Unix timestamp of the last successful refresh cycle.",
		}),
	}

	registry.MustRegister(
		m.refreshDurationSeconds,
		m.fetchErrorsTotal,
		m.cacheFallbacksTotal,
		m.staleResponsesDropped,
		m.notificationsTotal,
		m.countdownRemainingSeconds,
		m.countdownRingFraction,
		m.lastSuccessfulRefreshGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefreshDuration records the duration of a completed refresh cycle.
func (m *Metrics) ObserveRefreshDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshDurationSeconds.Observe(duration.Seconds())
}

// IncFetchErrors increments the failed-fetch counter.
func (m *Metrics) IncFetchErrors() {
	if m == nil {
		return
	}
	m.fetchErrorsTotal.Inc()
}

// IncCacheFallbacks increments the snapshot-fallback counter.
func (m *Metrics) IncCacheFallbacks() {
	if m == nil {
		return
	}
	m.cacheFallbacksTotal.Inc()
}

// IncStaleResponsesDropped increments the dropped-generation counter.
func (m *Metrics) IncStaleResponsesDropped() {
	if m == nil {
		return
	}
	m.staleResponsesDropped.Inc()
}

// IncNotifications increments the announcement counter.
func (m *Metrics) IncNotifications(window, kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(window, kind).Inc()
}

// SetCountdown records the latest countdown tick.
func (m *Metrics) SetCountdown(remaining time.Duration, fraction float64) {
	if m == nil {
		return
	}
	m.countdownRemainingSeconds.Set(remaining.Seconds())
	m.countdownRingFraction.Set(fraction)
}

// SetLastSuccessfulRefreshTimestamp sets the last successful refresh time.
func (m *Metrics) SetLastSuccessfulRefreshTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulRefreshGauge.Set(float64(t.Unix()))
}
