package stability

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidDuration is returned for a non-positive hold duration.
var ErrInvalidDuration = errors.New("stability: hold duration must be positive")

// State represents the stability state.
type State uint8

const (
	// StateIdle indicates the link is down.
	StateIdle State = iota

	// StateHolding indicates the link is up and the hold timer is running.
	StateHolding

	// StateStable indicates the link has been up for the full hold duration.
	StateStable
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHolding:
		return "HOLDING"
	case StateStable:
		return "STABLE"
	default:
		return "UNKNOWN"
	}
}

// Timer measures continuous link uptime.
type Timer struct {
	mu sync.RWMutex

	state State
	hold  time.Duration

	timer *time.Timer
	// gen invalidates callbacks from timers that were stopped after firing.
	gen       uint64
	startedAt time.Time
	holds     uint64

	onStateChange func(oldState, newState State)
	onStable      func()
}

// NewTimer creates a stability timer with the given hold duration.
func NewTimer(hold time.Duration) (*Timer, error) {
	if hold <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Timer{state: StateIdle, hold: hold}, nil
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Hold returns the configured hold duration.
func (t *Timer) Hold() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hold
}

// Holds returns how many times the timer reached StateStable.
func (t *Timer) Holds() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.holds
}

// Start begins a hold. Called when the link comes up.
// Calling Start while holding or stable has no effect.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return
	}

	oldState := t.state
	t.state = StateHolding
	t.startedAt = time.Now()
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.hold, func() {
		t.elapsed(gen)
	})
	stateChangeFn := t.onStateChange
	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(oldState, StateHolding)
	}
}

// Stop ends the current hold. Called when the link drops.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return
	}

	oldState := t.state
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.state = StateIdle
	t.startedAt = time.Time{}
	stateChangeFn := t.onStateChange
	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(oldState, StateIdle)
	}
}

// Uptime returns how long the current hold has been running.
// Returns 0 when idle.
func (t *Timer) Uptime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == StateIdle {
		return 0
	}
	return time.Since(t.startedAt)
}

// RemainingTime returns the time left until the link counts as stable.
// Returns 0 when not holding.
func (t *Timer) RemainingTime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.state != StateHolding {
		return 0
	}
	remaining := t.hold - time.Since(t.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *Timer) elapsed(gen uint64) {
	t.mu.Lock()
	if t.state != StateHolding || t.gen != gen {
		t.mu.Unlock()
		return
	}

	t.state = StateStable
	t.timer = nil
	t.holds++

	stateChangeFn := t.onStateChange
	stableFn := t.onStable
	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(StateHolding, StateStable)
	}
	if stableFn != nil {
		stableFn()
	}
}

// OnStateChange sets a callback for state changes.
func (t *Timer) OnStateChange(fn func(oldState, newState State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStateChange = fn
}

// OnStable sets a callback invoked each time a hold completes.
func (t *Timer) OnStable(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStable = fn
}
