package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest refresh cycle timing details.
type Snapshot struct {
	LastRefreshTime   *time.Time `json:"last_refresh_time"`
	RefreshDurationMS int64      `json:"refresh_duration_ms"`
	FromCache         bool       `json:"from_cache"`
	NextBoundary      *time.Time `json:"next_boundary"`
}

// Tracker records refresh cycle timing for health endpoints.
type Tracker struct {
	mu              sync.RWMutex
	lastRefresh     time.Time
	refreshDuration time.Duration
	fromCache       bool
	nextBoundary    time.Time
	ready           bool
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordRefresh updates cycle timing and readiness.
func (t *Tracker) RecordRefresh(duration time.Duration, fromCache bool, nextBoundary time.Time) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastRefresh = now
	t.refreshDuration = duration
	t.fromCache = fromCache
	t.nextBoundary = nextBoundary
	t.ready = true
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastRefresh.IsZero() {
		value := t.lastRefresh
		last = &value
	}
	var boundary *time.Time
	if !t.nextBoundary.IsZero() {
		value := t.nextBoundary
		boundary = &value
	}
	return Snapshot{
		LastRefreshTime:   last,
		RefreshDurationMS: int64(t.refreshDuration / time.Millisecond),
		FromCache:         t.fromCache,
		NextBoundary:      boundary,
	}
}

// Ready reports whether at least one refresh cycle has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether the next boundary has not been missed by more
// than the given grace period: a refresh is expected shortly after every
// boundary, so a long-overdue boundary means the refresh loop is stuck.
func (t *Tracker) Healthy(now time.Time, grace time.Duration) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastRefresh.IsZero() {
		return false
	}
	if t.nextBoundary.IsZero() {
		return true
	}
	return now.Before(t.nextBoundary.Add(grace))
}
