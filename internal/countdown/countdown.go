// Package countdown drives the repeating timer toward a prayer boundary.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/mihrab-app/mihrab/internal/times"
	"github.com/rs/zerolog"
)

const (
	defaultTickInterval = 500 * time.Millisecond
	// defaultExpiryDelay absorbs clock jitter right at the boundary and
	// avoids a tight refresh loop when upstream momentarily serves stale
	// data.
	defaultExpiryDelay = 2 * time.Second
)

// State describes the engine lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExpired:
		return "expired"
	default:
		return "idle"
	}
}

// Ticker is the minimal interface needed for driving the countdown loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Update is emitted on every tick while the countdown runs.
type Update struct {
	Remaining time.Duration
	// Display is the zero-padded "HH:MM:SS" rendering of Remaining.
	Display string
	// Fraction is remaining/span clamped to [0, 1], where span is the
	// distance from the previous boundary to the target. It drives the
	// circular progress ring.
	Fraction float64
	Expired  bool
}

// Engine runs at most one countdown at a time. Starting a new countdown
// cancels the previous one, so duplicate tick handlers cannot coexist.
type Engine struct {
	logger        zerolog.Logger
	tickInterval  time.Duration
	expiryDelay   time.Duration
	tickerFactory func(time.Duration) Ticker
	now           func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	state  State
	// runID identifies the active run; a superseded run's goroutine must
	// not touch the state of its successor.
	runID uint64
}

// Option customizes engine behavior.
type Option func(*Engine)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(e *Engine) {
		e.tickerFactory = factory
	}
}

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithTickInterval overrides the tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithExpiryDelay overrides the pause between expiry and the refresh
// callback.
func WithExpiryDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.expiryDelay = d
		}
	}
}

// New constructs an Engine.
func New(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:       logger,
		tickInterval: defaultTickInterval,
		expiryDelay:  defaultExpiryDelay,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start begins counting down toward boundary. The span for the progress
// fraction runs from previous to boundary. onTick receives every update,
// including the final zero one; onExpire fires once, after the expiry
// delay, unless the countdown was canceled or restarted first.
func (e *Engine) Start(ctx context.Context, boundary, previous time.Time, onTick func(Update), onExpire func()) {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = StateRunning
	e.runID++
	id := e.runID
	e.mu.Unlock()

	e.logger.Debug().
		Time("boundary", boundary).
		Time("previous", previous).
		Msg("countdown started")

	go e.run(runCtx, id, boundary, previous, onTick, onExpire)
}

// Stop cancels the active countdown, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.runID++
	e.state = StateIdle
}

func (e *Engine) run(ctx context.Context, id uint64, boundary, previous time.Time, onTick func(Update), onExpire func()) {
	span := boundary.Sub(previous)

	// Render immediately so the display never waits a full tick.
	if e.step(ctx, id, boundary, span, onTick, onExpire) {
		return
	}

	ticker := e.tickerFactory(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.setState(id, StateIdle)
			return
		case <-ticker.C():
			if e.step(ctx, id, boundary, span, onTick, onExpire) {
				return
			}
		}
	}
}

// step emits one update and reports whether the countdown finished.
func (e *Engine) step(ctx context.Context, id uint64, boundary time.Time, span time.Duration, onTick func(Update), onExpire func()) bool {
	update := e.compute(boundary, span)
	if onTick != nil {
		onTick(update)
	}
	if !update.Expired {
		return false
	}

	e.setState(id, StateExpired)
	e.logger.Debug().Time("boundary", boundary).Msg("countdown expired")

	if !sleepWithContext(ctx, e.expiryDelay) {
		e.setState(id, StateIdle)
		return true
	}
	e.setState(id, StateIdle)
	if onExpire != nil {
		onExpire()
	}
	return true
}

func (e *Engine) compute(boundary time.Time, span time.Duration) Update {
	remaining := boundary.Sub(e.now())
	if remaining <= 0 {
		return Update{Display: times.FormatRemaining(0), Expired: true}
	}

	fraction := 0.0
	if span > 0 {
		fraction = float64(remaining) / float64(span)
		if fraction > 1 {
			fraction = 1
		}
	}

	return Update{
		Remaining: remaining,
		Display:   times.FormatRemaining(remaining),
		Fraction:  fraction,
	}
}

// setState applies a state change only while the given run is still the
// active one.
func (e *Engine) setState(id uint64, s State) {
	e.mu.Lock()
	if id == e.runID {
		e.state = s
	}
	e.mu.Unlock()
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
