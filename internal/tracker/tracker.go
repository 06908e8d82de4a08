package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/store"
	"github.com/mihrab-app/mihrab/internal/times"
	"github.com/rs/zerolog"
)

const dayFormat = "2006-01-02"

// Tracker maintains the per-day record of completed prayers. A stored
// record whose date is not today is discarded and reset to all-false
// before being read or written.
type Tracker struct {
	store  store.Store
	logger zerolog.Logger
	now    func() time.Time
}

// Option customizes tracker behavior.
type Option func(*Tracker)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New constructs a Tracker over the given store.
func New(st store.Store, logger zerolog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today returns the tracker state for the current calendar day, resetting
// it first if the stored record belongs to a previous day.
func (t *Tracker) Today(ctx context.Context) (store.TrackerState, error) {
	today := t.now().Format(dayFormat)

	state, err := t.store.LoadTracker(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return store.TrackerState{}, fmt.Errorf("load tracker: %w", err)
		}
		return t.reset(ctx, today), nil
	}

	if state.Date != today || state.Prayers == nil {
		return t.reset(ctx, today), nil
	}
	return state, nil
}

// Toggle flips the completion flag for the named prayer and persists the
// result. The name must be one of the five daily prayers.
func (t *Tracker) Toggle(ctx context.Context, name string) (store.TrackerState, error) {
	if !isPrayerName(name) {
		return store.TrackerState{}, fmt.Errorf("unknown prayer %q", name)
	}

	state, err := t.Today(ctx)
	if err != nil {
		return store.TrackerState{}, err
	}

	state.Prayers[name] = !state.Prayers[name]
	t.persist(ctx, state)
	return state, nil
}

// reset builds a fresh all-false record for the given day and persists it
// best-effort.
func (t *Tracker) reset(ctx context.Context, today string) store.TrackerState {
	state := store.TrackerState{
		Date:    today,
		Prayers: make(map[string]bool, len(times.PrayerNames)),
	}
	for _, name := range times.PrayerNames {
		state.Prayers[name] = false
	}
	t.persist(ctx, state)
	return state
}

// persist saves the record, swallowing storage failures: the tracker keeps
// working in memory when the store is unavailable.
func (t *Tracker) persist(ctx context.Context, state store.TrackerState) {
	if err := t.store.SaveTracker(ctx, state); err != nil {
		t.logger.Warn().Err(err).Msg("tracker persist failed")
	}
}

func isPrayerName(name string) bool {
	for _, p := range times.PrayerNames {
		if p == name {
			return true
		}
	}
	return false
}
