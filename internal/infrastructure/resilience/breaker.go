package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call outright.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior.
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before allowing a probe.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(name string, from, to State)
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a circuit breaker with the given settings.
func New(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{
		name:     name,
		settings: settings,
	}
}

// Name returns the breaker's name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// Do runs fn if the breaker allows it and records the outcome. When the
// breaker is open the call is rejected with ErrCircuitOpen without
// invoking fn.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	state := b.currentStateLocked()
	switch state {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			// One probe at a time in half-open
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.settings.Threshold {
			b.setStateLocked(StateOpen)
			b.openedAt = time.Now()
		}
		return err
	}

	b.failures = 0
	if b.state != StateClosed {
		b.setStateLocked(StateClosed)
	}
	return nil
}

func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && time.Since(b.openedAt) >= b.settings.Cooldown {
		b.setStateLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) setStateLocked(state State) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
