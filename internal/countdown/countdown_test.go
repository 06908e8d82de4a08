package countdown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped bool
	mu      sync.Mutex
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestEngine_EmitsImmediateFirstUpdate(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	boundary := clock.Now().Add(time.Hour)
	previous := clock.Now().Add(-time.Hour)
	ticker := &fakeTicker{ch: make(chan time.Time)}
	updates := make(chan Update, 4)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
	)

	e.Start(context.Background(), boundary, previous, func(u Update) { updates <- u }, nil)
	defer e.Stop()

	select {
	case u := <-updates:
		if u.Expired {
			t.Fatalf("first update should not be expired")
		}
		if u.Display != "01:00:00" {
			t.Fatalf("Display = %q, want 01:00:00", u.Display)
		}
		if u.Fraction != 0.5 {
			t.Fatalf("Fraction = %v, want 0.5", u.Fraction)
		}
	case <-time.After(time.Second):
		t.Fatalf("no immediate update")
	}
}

func TestEngine_FractionDecreasesWithTicks(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	boundary := clock.Now().Add(time.Hour)
	previous := clock.Now()
	ticker := &fakeTicker{ch: make(chan time.Time, 4)}
	updates := make(chan Update, 8)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
	)

	e.Start(context.Background(), boundary, previous, func(u Update) { updates <- u }, nil)
	defer e.Stop()

	first := mustUpdate(t, updates)

	clock.Advance(15 * time.Minute)
	ticker.ch <- clock.Now()
	second := mustUpdate(t, updates)

	clock.Advance(15 * time.Minute)
	ticker.ch <- clock.Now()
	third := mustUpdate(t, updates)

	if !(first.Fraction > second.Fraction && second.Fraction > third.Fraction) {
		t.Fatalf("fraction should decrease: %v, %v, %v", first.Fraction, second.Fraction, third.Fraction)
	}
	for _, u := range []Update{first, second, third} {
		if u.Fraction < 0 || u.Fraction > 1 {
			t.Fatalf("fraction out of range: %v", u.Fraction)
		}
	}
	if third.Display != "00:30:00" {
		t.Fatalf("Display = %q, want 00:30:00", third.Display)
	}
}

func TestEngine_FractionClampedToOne(t *testing.T) {
	// A boundary further away than the span can produce a fraction above
	// one; it must clamp.
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	boundary := clock.Now().Add(2 * time.Hour)
	previous := boundary.Add(-time.Hour)
	ticker := &fakeTicker{ch: make(chan time.Time)}
	updates := make(chan Update, 2)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
	)

	e.Start(context.Background(), boundary, previous, func(u Update) { updates <- u }, nil)
	defer e.Stop()

	u := mustUpdate(t, updates)
	if u.Fraction != 1 {
		t.Fatalf("Fraction = %v, want clamp to 1", u.Fraction)
	}
}

func TestEngine_ExpiryEmitsZeroUpdateThenCallback(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	boundary := clock.Now().Add(time.Minute)
	previous := clock.Now().Add(-time.Hour)
	ticker := &fakeTicker{ch: make(chan time.Time, 2)}
	updates := make(chan Update, 4)
	expired := make(chan struct{}, 1)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
		WithExpiryDelay(0),
	)

	e.Start(context.Background(), boundary, previous, func(u Update) { updates <- u }, func() { expired <- struct{}{} })
	defer e.Stop()

	mustUpdate(t, updates)

	clock.Advance(2 * time.Minute)
	ticker.ch <- clock.Now()

	final := mustUpdate(t, updates)
	if !final.Expired {
		t.Fatalf("final update should be expired")
	}
	if final.Display != "00:00:00" {
		t.Fatalf("final Display = %q, want 00:00:00", final.Display)
	}
	if final.Fraction != 0 {
		t.Fatalf("final Fraction = %v, want 0", final.Fraction)
	}

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expiry callback not invoked")
	}

	waitForStopped(t, ticker)
}

func TestEngine_StartCancelsPreviousCountdown(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	firstTicker := &fakeTicker{ch: make(chan time.Time)}
	secondTicker := &fakeTicker{ch: make(chan time.Time)}
	tickers := []*fakeTicker{firstTicker, secondTicker}
	var tickerIdx int
	var mu sync.Mutex

	updates := make(chan Update, 8)
	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker {
			mu.Lock()
			defer mu.Unlock()
			tk := tickers[tickerIdx]
			tickerIdx++
			return tk
		}),
	)

	boundary := clock.Now().Add(time.Hour)
	previous := clock.Now()
	e.Start(context.Background(), boundary, previous, func(u Update) { updates <- u }, nil)
	mustUpdate(t, updates)

	e.Start(context.Background(), boundary.Add(time.Hour), previous, func(u Update) { updates <- u }, nil)
	defer e.Stop()
	mustUpdate(t, updates)

	waitForStopped(t, firstTicker)
}

func TestEngine_StopEndsCountdown(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	ticker := &fakeTicker{ch: make(chan time.Time)}
	updates := make(chan Update, 2)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
	)

	e.Start(context.Background(), clock.Now().Add(time.Hour), clock.Now(), func(u Update) { updates <- u }, nil)
	mustUpdate(t, updates)

	e.Stop()
	waitForStopped(t, ticker)

	if got := e.State(); got != StateIdle {
		t.Fatalf("State = %v, want idle after Stop", got)
	}
}

func TestEngine_ContextCancellationResetsState(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	ticker := &fakeTicker{ch: make(chan time.Time)}
	updates := make(chan Update, 2)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithTickerFactory(func(time.Duration) Ticker { return ticker }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx, clock.Now().Add(time.Hour), clock.Now(), func(u Update) { updates <- u }, nil)
	mustUpdate(t, updates)

	cancel()
	waitForStopped(t, ticker)

	deadline := time.After(time.Second)
	for e.State() != StateIdle {
		select {
		case <-deadline:
			t.Fatalf("State = %v, want idle after context cancellation", e.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestEngine_AlreadyPastBoundaryExpiresImmediately(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	updates := make(chan Update, 2)
	expired := make(chan struct{}, 1)

	e := New(zerolog.Nop(),
		WithClock(clock.Now),
		WithExpiryDelay(0),
	)

	e.Start(context.Background(), clock.Now().Add(-time.Minute), clock.Now().Add(-time.Hour),
		func(u Update) { updates <- u }, func() { expired <- struct{}{} })
	defer e.Stop()

	u := mustUpdate(t, updates)
	if !u.Expired {
		t.Fatalf("update should be expired for past boundary")
	}
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("expiry callback not invoked")
	}
}

func mustUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for update")
		return Update{}
	}
}

func waitForStopped(t *testing.T, ticker *fakeTicker) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if ticker.Stopped() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("ticker not stopped")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
