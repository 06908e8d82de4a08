package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mihrab-app/mihrab/internal/store"
)

type memStore struct {
	tracker    store.TrackerState
	hasTracker bool
	saveErr    error
	loadErr    error
	saves      int
}

func (m *memStore) LoadSnapshot(context.Context) (store.Snapshot, error) {
	return store.Snapshot{}, store.ErrNotFound
}

func (m *memStore) SaveSnapshot(context.Context, store.Snapshot) error { return nil }

func (m *memStore) LoadTracker(context.Context) (store.TrackerState, error) {
	if m.loadErr != nil {
		return store.TrackerState{}, m.loadErr
	}
	if !m.hasTracker {
		return store.TrackerState{}, store.ErrNotFound
	}
	return m.tracker, nil
}

func (m *memStore) SaveTracker(_ context.Context, state store.TrackerState) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tracker = state
	m.hasTracker = true
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestToday_FreshStateIsAllFalse(t *testing.T) {
	st := &memStore{}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))))

	state, err := tr.Today(context.Background())
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if state.Date != "2026-03-10" {
		t.Fatalf("Date = %q, want 2026-03-10", state.Date)
	}
	if len(state.Prayers) != 5 {
		t.Fatalf("expected 5 prayers, got %d", len(state.Prayers))
	}
	for name, done := range state.Prayers {
		if done {
			t.Fatalf("prayer %q should start false", name)
		}
	}
	if st.saves != 1 {
		t.Fatalf("fresh state should be persisted once, got %d saves", st.saves)
	}
}

func TestToday_DayRolloverResets(t *testing.T) {
	st := &memStore{
		tracker: store.TrackerState{
			Date:    "2026-03-09",
			Prayers: map[string]bool{"Fajr": true, "Dhuhr": true, "Asr": true, "Maghrib": true, "Isha": true},
		},
		hasTracker: true,
	}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC))))

	state, err := tr.Today(context.Background())
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if state.Date != "2026-03-10" {
		t.Fatalf("Date = %q, want 2026-03-10", state.Date)
	}
	for name, done := range state.Prayers {
		if done {
			t.Fatalf("prayer %q should reset to false on rollover", name)
		}
	}
}

func TestToday_SameDayPreserved(t *testing.T) {
	st := &memStore{
		tracker: store.TrackerState{
			Date:    "2026-03-10",
			Prayers: map[string]bool{"Fajr": true, "Dhuhr": false, "Asr": false, "Maghrib": false, "Isha": false},
		},
		hasTracker: true,
	}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))))

	state, err := tr.Today(context.Background())
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if !state.Prayers["Fajr"] {
		t.Fatalf("same-day state should be preserved")
	}
	if st.saves != 0 {
		t.Fatalf("same-day read should not persist, got %d saves", st.saves)
	}
}

func TestToday_NilPrayersMapResets(t *testing.T) {
	st := &memStore{
		tracker:    store.TrackerState{Date: "2026-03-10"},
		hasTracker: true,
	}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))))

	state, err := tr.Today(context.Background())
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if state.Prayers == nil || len(state.Prayers) != 5 {
		t.Fatalf("nil prayers map should reset to full record: %+v", state)
	}
}

func TestToggle(t *testing.T) {
	st := &memStore{}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))))
	ctx := context.Background()

	state, err := tr.Toggle(ctx, "Dhuhr")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !state.Prayers["Dhuhr"] {
		t.Fatalf("toggle should flip Dhuhr to true")
	}

	state, err = tr.Toggle(ctx, "Dhuhr")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if state.Prayers["Dhuhr"] {
		t.Fatalf("second toggle should flip Dhuhr back to false")
	}
}

func TestToggle_UnknownPrayer(t *testing.T) {
	tr := New(&memStore{}, zerolog.Nop())

	if _, err := tr.Toggle(context.Background(), "Sunrise"); err == nil {
		t.Fatalf("Sunrise is not a prayer and must be rejected")
	}
	if _, err := tr.Toggle(context.Background(), "Brunch"); err == nil {
		t.Fatalf("expected error for unknown prayer")
	}
}

func TestToggle_StoreFailureKeepsWorking(t *testing.T) {
	st := &memStore{saveErr: errors.New("disk full")}
	tr := New(st, zerolog.Nop(), WithClock(fixedClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))))

	state, err := tr.Toggle(context.Background(), "Fajr")
	if err != nil {
		t.Fatalf("Toggle should survive persist failure: %v", err)
	}
	if !state.Prayers["Fajr"] {
		t.Fatalf("in-memory toggle should still apply")
	}
}

func TestToday_LoadFailurePropagates(t *testing.T) {
	st := &memStore{loadErr: errors.New("backend down")}
	tr := New(st, zerolog.Nop())

	if _, err := tr.Today(context.Background()); err == nil {
		t.Fatalf("expected error when load fails with a non-absent error")
	}
}
