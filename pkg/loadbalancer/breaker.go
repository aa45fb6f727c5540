package loadbalancer

import (
	"sync"
	"time"
)

// BreakerState is the closed set of circuit breaker states.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	defaultBreakerFailureThreshold = 5
	defaultBreakerOpenTimeout      = 60 * time.Second
)

// Breaker is a per-backend-instance circuit breaker: closed allows all
// traffic; N consecutive failures opens it; after the open timeout it
// admits a single half-open probe; success closes it, failure reopens
// it and restarts the timeout.
type Breaker struct {
	mu              sync.Mutex
	state           BreakerState
	consecutiveFail int
	openedAt        time.Time
	halfOpenInFlight bool

	failureThreshold int
	openTimeout      time.Duration
}

// NewBreaker builds a closed breaker using the package's default
// failure threshold and open timeout.
func NewBreaker() *Breaker {
	return NewBreakerWithConfig(defaultBreakerFailureThreshold, defaultBreakerOpenTimeout)
}

// NewBreakerWithConfig builds a closed breaker with an explicit
// consecutive-failure threshold and open timeout (spec.md §6's
// CIRCUIT_BREAKER_FAILURE_THRESHOLD/CIRCUIT_BREAKER_OPEN_SECONDS).
// Non-positive values fall back to the package defaults.
func NewBreakerWithConfig(failureThreshold int, openTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = defaultBreakerFailureThreshold
	}
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	return &Breaker{
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
	}
}

// Allow reports whether a request may be sent, transitioning
// Open->HalfOpen once the open timeout elapses and admitting exactly
// one probe at a time while half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.openedAt) >= b.openTimeout {
			b.state = BreakerHalfOpen
			b.halfOpenInFlight = true
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.halfOpenInFlight {
			return false
		}
		b.halfOpenInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.consecutiveFail = 0
	b.halfOpenInFlight = false
}

// RecordFailure increments the failure count, opening the breaker once
// the threshold is reached (or immediately, from half-open).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.halfOpenInFlight = false
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.failureThreshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
