package resilience

import (
	"sync"
	"time"
)

// Registry tracks one Breaker per agent id. Breakers are created lazily on
// first use and removed when an agent is unregistered.
type Registry struct {
	mu          sync.Mutex
	breakers    map[string]*Breaker
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time // propagated to new breakers, for testing
}

// NewRegistry creates a Registry whose breakers open after maxFailures
// consecutive failures and cool down for the given duration.
func NewRegistry(maxFailures int, cooldown time.Duration) *Registry {
	return &Registry{
		breakers:    make(map[string]*Breaker),
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// SetClock overrides the time source for all breakers created afterwards.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Registry) breaker(id string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[id]
	if !ok {
		b = NewBreaker(r.maxFailures, r.cooldown)
		b.now = r.now
		r.breakers[id] = b
	}
	return b
}

// Allow reports whether a call to the given agent may proceed.
func (r *Registry) Allow(id string) bool {
	return r.breaker(id).Allow()
}

// RecordSuccess marks a successful call for the agent.
// Returns true when the call closed a previously open circuit.
func (r *Registry) RecordSuccess(id string) bool {
	return r.breaker(id).RecordSuccess()
}

// RecordFailure marks a failed call for the agent.
// Returns true when the failure opened the circuit.
func (r *Registry) RecordFailure(id string) bool {
	return r.breaker(id).RecordFailure()
}

// Remove drops the breaker for an unregistered agent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.breakers, id)
}

// Snapshot returns the state of every tracked breaker keyed by agent id.
func (r *Registry) Snapshot() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.breakers))
	for id, b := range r.breakers {
		out[id] = b.Snapshot()
	}
	return out
}
