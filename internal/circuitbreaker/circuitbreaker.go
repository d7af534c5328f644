// Package circuitbreaker stops companion fetches after repeated upstream
// failures and probes again after a cool-down.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrOpen is returned by Call while the circuit rejects requests.
var ErrOpen = errors.New("circuit breaker open")

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters. Zero values take defaults.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Component        string
	// OnStateChange is called after each transition, outside the lock.
	OnStateChange func(from, to State)
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

type CircuitBreaker struct {
	cfg Config

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	openedAt     time.Time
}

func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{cfg: cfg}
}

// Call runs fn if the circuit allows it. An open circuit fails fast with
// ErrOpen until Timeout has passed, then lets probes through half-open.
// The context is not passed to fn; callers close over their own.
func (cb *CircuitBreaker) Call(_ context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.cfg.Now().Sub(cb.openedAt) < cb.cfg.Timeout {
		cb.mu.Unlock()
		if cb.cfg.Component != "" {
			return fmt.Errorf("%s: %w", cb.cfg.Component, ErrOpen)
		}
		return ErrOpen
	}
	cb.successCount = 0
	notify := cb.transitionLocked(StateHalfOpen)
	cb.mu.Unlock()
	notify()
	return nil
}

func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	notify := func() {}
	if ok {
		cb.failureCount = 0
		cb.successCount++
		if cb.state == StateHalfOpen && cb.successCount >= cb.cfg.SuccessThreshold {
			cb.successCount = 0
			notify = cb.transitionLocked(StateClosed)
		}
	} else {
		cb.failureCount++
		if cb.state == StateHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
			cb.failureCount = 0
			cb.openedAt = cb.cfg.Now()
			notify = cb.transitionLocked(StateOpen)
		}
	}
	cb.mu.Unlock()
	notify()
}

// transitionLocked sets the new state and returns the deferred callback.
func (cb *CircuitBreaker) transitionLocked(to State) func() {
	from := cb.state
	cb.state = to
	if cb.cfg.OnStateChange == nil || from == to {
		return func() {}
	}
	return func() { cb.cfg.OnStateChange(from, to) }
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
