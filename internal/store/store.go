package store

import (
	"context"
	"errors"
	"time"

	"github.com/mihrab-app/mihrab/internal/times"
)

// Storage keys, fixed for the lifetime of the app. Bump the suffix only on
// an incompatible payload change.
const (
	SnapshotKey = "lastPrayerTimes_v1"
	TrackerKey  = "prayerTracker_v1"
)

// ErrNotFound reports that no value is persisted under the requested key.
var ErrNotFound = errors.New("store: not found")

// Snapshot is the last successfully fetched prayer-time set, timestamped.
// Staleness is unbounded: a snapshot is never expired or pruned.
type Snapshot struct {
	CapturedAt time.Time           `json:"captured_at"`
	Timings    times.PrayerTimeSet `json:"timings"`
}

// TrackerState is the daily prayer tracker payload. Date is the calendar
// day ("2006-01-02") the booleans belong to.
type TrackerState struct {
	Date    string          `json:"date"`
	Prayers map[string]bool `json:"prayers"`
}

// Store persists the snapshot and tracker under their fixed keys.
// Implementations return ErrNotFound for absent or unreadable values;
// persistence is best-effort and failures must not take the app down.
type Store interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadTracker(ctx context.Context) (TrackerState, error)
	SaveTracker(ctx context.Context, state TrackerState) error
}
