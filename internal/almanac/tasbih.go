package almanac

import "sync"

// DefaultTasbihTarget is the customary cycle length.
const DefaultTasbihTarget = 33

// Tasbih is a dhikr counter. It counts taps toward a cycle target and
// tracks completed cycles; safe for concurrent use by API handlers.
type Tasbih struct {
	mu     sync.Mutex
	target int
	count  int
	cycles int
}

// TasbihState is a snapshot of the counter.
type TasbihState struct {
	Count  int `json:"count"`
	Cycles int `json:"cycles"`
	Target int `json:"target"`
}

// NewTasbih constructs a counter; a non-positive target selects the
// default of 33.
func NewTasbih(target int) *Tasbih {
	if target <= 0 {
		target = DefaultTasbihTarget
	}
	return &Tasbih{target: target}
}

// Increment advances the counter, rolling into a new cycle at the target.
func (t *Tasbih) Increment() TasbihState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	if t.count >= t.target {
		t.count = 0
		t.cycles++
	}
	return t.stateLocked()
}

// Reset zeroes the counter and completed cycles.
func (t *Tasbih) Reset() TasbihState {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = 0
	t.cycles = 0
	return t.stateLocked()
}

// State returns the current snapshot.
func (t *Tasbih) State() TasbihState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Tasbih) stateLocked() TasbihState {
	return TasbihState{Count: t.count, Cycles: t.cycles, Target: t.target}
}
