// Package resilience provides reliability patterns for unreliable agent calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// State is a point-in-time snapshot of one breaker, exposed for
// transparency and health reporting.
type State struct {
	Open            bool      `json:"is_open"`
	Failures        int       `json:"failure_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitzero"`
	NextAttemptTime time.Time `json:"next_attempt_time,omitzero"`
}

// Breaker implements a circuit breaker for a single agent. It opens after
// maxFailures consecutive failures and rejects calls until the cooldown
// elapses, after which exactly one probe call is admitted; the probe outcome
// decides whether the circuit closes or reopens.
type Breaker struct {
	mu          sync.Mutex
	state       state
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	lastFailure time.Time
	probing     bool
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures and stays open for the given cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state it transitions
// to half-open once the cooldown has elapsed; half-open admits a single probe
// until its outcome is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = stateHalfOpen
			b.probing = true
			return true
		}
		return false
	case stateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// RecordSuccess marks a successful call. Returns true when this closed a
// previously open (half-open) circuit.
func (b *Breaker) RecordSuccess() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	closed := b.state != stateClosed
	b.state = stateClosed
	b.failures = 0
	b.probing = false
	return closed
}

// RecordFailure marks a failed call. Returns true when this opened the
// circuit (threshold reached, or a half-open probe failed).
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.state == stateHalfOpen || (b.state == stateClosed && b.failures >= b.maxFailures) {
		b.state = stateOpen
		b.openedAt = b.now()
		b.probing = false
		return true
	}
	if b.state == stateOpen {
		b.openedAt = b.now()
	}
	return false
}

// Execute runs fn if the breaker admits the call, recording the outcome.
// Returns ErrCircuitOpen without running fn if the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.Allow() {
		return ErrCircuitOpen
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Snapshot returns the current breaker state.
func (b *Breaker) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := State{
		Open:            b.state != stateClosed,
		Failures:        b.failures,
		LastFailureTime: b.lastFailure,
	}
	if b.state == stateOpen {
		s.NextAttemptTime = b.openedAt.Add(b.cooldown)
	}
	return s
}
