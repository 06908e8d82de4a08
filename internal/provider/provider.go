// Package provider supplies today's prayer times, live when the upstream
// API answers and from the persisted snapshot when it does not.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/times"
	"github.com/rs/zerolog"
)

// ErrNoData reports that the live fetch failed and no snapshot exists.
// Callers render a "cannot load" state instead of propagating further.
var ErrNoData = errors.New("provider: no prayer times available")

// TimingsFetcher retrieves a validated prayer-time set for coordinates.
type TimingsFetcher interface {
	FetchTimings(ctx context.Context, lat, lon float64) (times.PrayerTimeSet, error)
}

// Result carries the obtained time set and its provenance.
type Result struct {
	Timings    times.PrayerTimeSet
	FromCache  bool
	CapturedAt time.Time
}

// Provider wraps a fetcher with snapshot persistence and fallback.
type Provider struct {
	fetcher TimingsFetcher
	store   store.Store
	logger  zerolog.Logger
	now     func() time.Time
}

// Option customizes provider behavior.
type Option func(*Provider)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New constructs a Provider.
func New(fetcher TimingsFetcher, st store.Store, logger zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		fetcher: fetcher,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timings makes a single fetch attempt. On success the result is persisted
// and returned live. On any failure the most recent snapshot is returned
// instead, however stale; with no snapshot either, ErrNoData.
func (p *Provider) Timings(ctx context.Context, lat, lon float64) (Result, error) {
	set, fetchErr := p.fetcher.FetchTimings(ctx, lat, lon)
	if fetchErr == nil {
		capturedAt := p.now().UTC()
		snap := store.Snapshot{CapturedAt: capturedAt, Timings: set}
		if err := p.store.SaveSnapshot(ctx, snap); err != nil {
			// Best-effort persistence: a full store must not block
			// live data.
			p.logger.Warn().Err(err).Msg("snapshot persist failed")
		}
		return Result{Timings: set, CapturedAt: capturedAt}, nil
	}

	p.logger.Warn().Err(fetchErr).Msg("live fetch failed, trying snapshot")

	snap, err := p.store.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrNoData, fetchErr)
		}
		return Result{}, fmt.Errorf("%w: %s", ErrNoData, err)
	}
	if err := snap.Timings.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: snapshot invalid: %s", ErrNoData, err)
	}

	p.logger.Info().
		Time("captured_at", snap.CapturedAt).
		Msg("serving snapshot timings")

	return Result{Timings: snap.Timings, FromCache: true, CapturedAt: snap.CapturedAt}, nil
}

// Cached returns the persisted snapshot without attempting a fetch, for
// callers that could not obtain coordinates at all.
func (p *Provider) Cached(ctx context.Context) (Result, error) {
	snap, err := p.store.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrNoData
		}
		return Result{}, fmt.Errorf("%w: %s", ErrNoData, err)
	}
	if err := snap.Timings.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: snapshot invalid: %s", ErrNoData, err)
	}
	return Result{Timings: snap.Timings, FromCache: true, CapturedAt: snap.CapturedAt}, nil
}
