// Package engine owns the mutable prayer-time state and drives the
// refresh cycle: locate, fetch, resolve, count down, repeat at expiry.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mihrab-app/mihrab/internal/countdown"
	"github.com/mihrab-app/mihrab/internal/geo"
	"github.com/mihrab-app/mihrab/internal/healthcheck"
	"github.com/mihrab-app/mihrab/internal/metrics"
	"github.com/mihrab-app/mihrab/internal/notify"
	"github.com/mihrab-app/mihrab/internal/provider"
	"github.com/mihrab-app/mihrab/internal/resolve"
	"github.com/mihrab-app/mihrab/internal/times"
	"github.com/mihrab-app/mihrab/internal/transition"
	"github.com/rs/zerolog"
)

const defaultRetryInterval = 5 * time.Minute

// TimingsSource supplies a day's prayer times, live or from cache.
type TimingsSource interface {
	Timings(ctx context.Context, lat, lon float64) (provider.Result, error)
	Cached(ctx context.Context) (provider.Result, error)
}

// Status is the engine's externally visible state.
type Status struct {
	Timings    times.PrayerTimeSet `json:"timings,omitempty"`
	Resolution *resolve.Resolution `json:"resolution,omitempty"`
	Countdown  countdown.Update    `json:"countdown"`
	FromCache  bool                `json:"from_cache"`
	CapturedAt time.Time           `json:"captured_at"`
	Location   *geo.Location       `json:"location,omitempty"`
	// Degraded carries the placeholder message when no data is
	// available; empty otherwise.
	Degraded string `json:"degraded,omitempty"`
}

// Engine coordinates the provider, resolver, countdown, and notifier.
// All mutable state lives here, guarded by one mutex, instead of in
// package-level variables.
type Engine struct {
	logger        zerolog.Logger
	locator       geo.Locator
	source        TimingsSource
	countdown     *countdown.Engine
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	health        *healthcheck.Tracker
	retryInterval time.Duration
	now           func() time.Time

	// generation numbers refresh cycles; a cycle's result is applied
	// only while it is still the newest issued one, so a slow response
	// can never overwrite the state of a later cycle.
	generation atomic.Uint64

	mu             sync.RWMutex
	runCtx         context.Context
	status         Status
	lastLocation   *geo.Location
	lastResolution *resolve.Resolution
}

// Option customizes engine behavior.
type Option func(*Engine)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRetryInterval sets how often a degraded engine retries a refresh.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryInterval = d
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithHealthTracker attaches a healthcheck tracker.
func WithHealthTracker(t *healthcheck.Tracker) Option {
	return func(e *Engine) {
		e.health = t
	}
}

// New constructs an Engine.
func New(logger zerolog.Logger, locator geo.Locator, source TimingsSource, cd *countdown.Engine, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		logger:        logger,
		locator:       locator,
		source:        source,
		countdown:     cd,
		notifier:      notifier,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run refreshes immediately, then blocks until the context is canceled.
// Subsequent refreshes are triggered by countdown expiry; the ticker only
// retries while the engine is degraded and has no boundary to expire.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	e.runCtx = ctx
	e.mu.Unlock()

	e.Refresh(ctx)

	ticker := time.NewTicker(e.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.countdown.Stop()
			e.logger.Info().Msg("engine stopped")
			return nil
		case <-ticker.C:
			if e.degraded() {
				e.Refresh(ctx)
			}
		}
	}
}

// Refresh runs one full cycle: resolve location, obtain timings, resolve
// the next prayer, and restart the countdown. Every failure degrades to a
// placeholder status instead of propagating.
func (e *Engine) Refresh(ctx context.Context) {
	gen := e.generation.Add(1)
	start := e.now()

	result, err := e.obtainTimings(ctx)
	if err != nil {
		e.metrics.IncFetchErrors()
		e.applyDegraded(gen, "Cannot load prayer times.")
		return
	}
	if result.FromCache {
		e.metrics.IncCacheFallbacks()
	}

	now := e.now()
	resolution, err := resolve.Next(result.Timings, now)
	if err != nil {
		e.logger.Error().Err(err).Msg("resolution failed")
		e.applyDegraded(gen, "Cannot load prayer times.")
		return
	}

	if !e.apply(gen, result, resolution, now) {
		e.metrics.IncStaleResponsesDropped()
		e.logger.Debug().Uint64("generation", gen).Msg("stale refresh result dropped")
		return
	}

	elapsed := e.now().Sub(start)
	e.metrics.ObserveRefreshDuration(elapsed)
	e.metrics.SetLastSuccessfulRefreshTimestamp(now)
	e.health.RecordRefresh(elapsed, result.FromCache, resolution.Boundary)

	e.logger.Info().
		Str("window", resolution.CurrentWindow).
		Str("target", resolution.Target).
		Time("boundary", resolution.Boundary).
		Bool("from_cache", result.FromCache).
		Msg("refresh cycle complete")

	// The countdown outlives the refresh that started it. Binding it to
	// the caller's context would let a finished API request cancel the
	// active timer, so it runs on the engine's own lifetime instead.
	life := e.lifetime()
	e.countdown.Start(life, resolution.Boundary, resolution.PreviousBoundary,
		func(update countdown.Update) {
			e.recordTick(update)
		},
		func() {
			e.Refresh(life)
		},
	)
}

// lifetime is the context countdown goroutines are bound to: the Run
// context while the engine is running, Background otherwise.
func (e *Engine) lifetime() context.Context {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.runCtx != nil {
		return e.runCtx
	}
	return context.Background()
}

// Stop cancels the active countdown. Run calls it on shutdown; tests and
// embedders driving Refresh directly call it themselves.
func (e *Engine) Stop() {
	e.countdown.Stop()
}

// Status returns a copy of the current state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Next recomputes the resolution from the current timings and wall clock.
// It is never served from the stored resolution, so a page held open
// across a boundary cannot observe a drifted answer.
func (e *Engine) Next() (resolve.Resolution, error) {
	e.mu.RLock()
	set := e.status.Timings
	e.mu.RUnlock()

	if set == nil {
		return resolve.Resolution{}, provider.ErrNoData
	}
	return resolve.Next(set, e.now())
}

func (e *Engine) obtainTimings(ctx context.Context) (provider.Result, error) {
	loc, err := e.locate(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("location unavailable, trying snapshot")
		return e.source.Cached(ctx)
	}
	return e.source.Timings(ctx, loc.Latitude, loc.Longitude)
}

// locate resolves coordinates, reusing the last known location when the
// lookup fails.
func (e *Engine) locate(ctx context.Context) (geo.Location, error) {
	loc, err := e.locator.Locate(ctx)
	if err == nil {
		e.mu.Lock()
		copied := loc
		e.lastLocation = &copied
		e.mu.Unlock()
		return loc, nil
	}

	e.mu.RLock()
	last := e.lastLocation
	e.mu.RUnlock()
	if last != nil {
		return *last, nil
	}
	return geo.Location{}, err
}

// apply installs a cycle's result unless a newer cycle has started, and
// emits a window-transition notification when the active window changed.
func (e *Engine) apply(gen uint64, result provider.Result, resolution resolve.Resolution, now time.Time) bool {
	e.mu.Lock()
	if gen != e.generation.Load() {
		e.mu.Unlock()
		return false
	}

	change := transition.Detect(e.lastResolution, resolution, result.FromCache, now)

	res := resolution
	e.lastResolution = &res
	e.status = Status{
		Timings:    result.Timings,
		Resolution: &res,
		FromCache:  result.FromCache,
		CapturedAt: result.CapturedAt,
		Location:   e.lastLocation,
	}
	e.mu.Unlock()

	if change != nil && e.notifier != nil {
		city := ""
		if loc := e.location(); loc != nil {
			city = loc.City
		}
		e.metrics.IncNotifications(change.Window, string(change.Kind))
		if err := e.notifier.Notify(context.Background(), city, *change); err != nil {
			e.logger.Warn().Err(err).Str("window", change.Window).Msg("notification failed")
		}
	}
	return true
}

func (e *Engine) applyDegraded(gen uint64, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation.Load() {
		return
	}
	e.lastResolution = nil
	e.status = Status{
		Degraded: message,
		Location: e.lastLocation,
	}
}

func (e *Engine) recordTick(update countdown.Update) {
	e.mu.Lock()
	e.status.Countdown = update
	e.mu.Unlock()
	e.metrics.SetCountdown(update.Remaining, update.Fraction)
}

func (e *Engine) degraded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status.Degraded != "" || e.status.Timings == nil
}

func (e *Engine) location() *geo.Location {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastLocation
}

// ErrNoData is re-exported for callers switching on degraded responses.
var ErrNoData = provider.ErrNoData
