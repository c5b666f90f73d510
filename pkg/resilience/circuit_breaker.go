// Package resilience provides a circuit breaker that wraps calls to a
// failing dependency so it is not called again until a recovery timeout
// has passed. No other package in this module uses it.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the current circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// Config configures a CircuitBreaker.
type Config struct {
	Name             string
	FailureThreshold int64
	SuccessThreshold int64
	RecoveryTimeout  time.Duration
	RequestTimeout   time.Duration
}

// DefaultConfig returns a breaker tuned for a storage backend dependency.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
		RequestTimeout:   10 * time.Second,
	}
}

// Stats reports the breaker's current counters.
type Stats struct {
	State            State
	Failures         int64
	Successes        int64
	StateChangedTime time.Time
}

// CircuitBreaker guards an operation, opening after FailureThreshold
// consecutive failures and probing recovery after RecoveryTimeout.
type CircuitBreaker struct {
	config *Config
	mu     sync.RWMutex
	state  State

	failures  int64
	successes int64

	stateChangedTime time.Time
}

// New creates a CircuitBreaker, falling back to DefaultConfig for nil.
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig("default")
	}
	return &CircuitBreaker{config: config, state: StateClosed, stateChangedTime: time.Now()}
}

// Execute runs fn with circuit breaker protection, failing fast without
// calling fn when the circuit is open and recovery has not elapsed.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("circuit breaker %q is open", cb.config.Name)
	}

	if cb.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.config.RequestTimeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.stateChangedTime) >= cb.config.RecoveryTimeout {
			cb.setState(StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	atomic.AddInt64(&cb.successes, 1)

	if cb.state == StateClosed {
		atomic.StoreInt64(&cb.failures, 0)
	}
	if cb.state == StateHalfOpen && atomic.LoadInt64(&cb.successes) >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	atomic.AddInt64(&cb.failures, 1)

	switch cb.state {
	case StateClosed:
		if atomic.LoadInt64(&cb.failures) >= cb.config.FailureThreshold {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

// setState must be called with cb.mu held.
func (cb *CircuitBreaker) setState(s State) {
	cb.state = s
	cb.stateChangedTime = time.Now()
	atomic.StoreInt64(&cb.failures, 0)
	atomic.StoreInt64(&cb.successes, 0)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats returns a snapshot of the breaker's counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return Stats{
		State:            cb.state,
		Failures:         atomic.LoadInt64(&cb.failures),
		Successes:        atomic.LoadInt64(&cb.successes),
		StateChangedTime: cb.stateChangedTime,
	}
}

// Reset forces the breaker back to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
}
