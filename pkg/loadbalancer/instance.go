package loadbalancer

import (
	"sync"
	"time"
)

// ewmaAlpha is the exponential moving average smoothing factor used
// for per-instance latency tracking (spec.md §4.K).
const ewmaAlpha = 0.1

// Instance is one backend pool member: a bounded concurrency permit
// set (grounded on the teacher's pkg/internal/http channel-semaphore
// concurrency style), an EWMA latency tracker, and a Breaker.
type Instance struct {
	Name   string
	Weight int

	sem chan struct{}

	mu             sync.Mutex
	ewmaLatencyMs  float64
	activeRequests int
	healthy        bool

	Breaker *Breaker
}

// NewInstance builds a pool member with the given concurrency limit
// (0 means unbounded), weight (used by the weighted strategy), and a
// breaker built with the package's default failure threshold/open
// timeout.
func NewInstance(name string, weight, maxConcurrent int) *Instance {
	return NewInstanceWithBreaker(name, weight, maxConcurrent, NewBreaker())
}

// NewInstanceWithBreaker builds a pool member using a caller-supplied
// breaker, e.g. one built via NewBreakerWithConfig from
// gwconfig.Config's CircuitBreakerFailureThreshold/
// CircuitBreakerOpenSeconds.
func NewInstanceWithBreaker(name string, weight, maxConcurrent int, breaker *Breaker) *Instance {
	inst := &Instance{
		Name:    name,
		Weight:  weight,
		Breaker: breaker,
		healthy: true,
	}
	if maxConcurrent > 0 {
		inst.sem = make(chan struct{}, maxConcurrent)
	}
	return inst
}

// Acquire blocks until a concurrency permit is available (a no-op when
// unbounded) and returns a release function.
func (i *Instance) Acquire() func() {
	if i.sem == nil {
		i.mu.Lock()
		i.activeRequests++
		i.mu.Unlock()
		return func() {
			i.mu.Lock()
			i.activeRequests--
			i.mu.Unlock()
		}
	}

	i.sem <- struct{}{}
	i.mu.Lock()
	i.activeRequests++
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		i.activeRequests--
		i.mu.Unlock()
		<-i.sem
	}
}

// ActiveRequests returns the current in-flight request count, the
// read path authoritative for the least-connections strategy (spec.md
// §9 open question 2: the mutex-guarded read is authoritative; the
// field is written only under the same lock).
func (i *Instance) ActiveRequests() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.activeRequests
}

// RecordLatency folds a completed request's latency into the EWMA.
func (i *Instance) RecordLatency(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	ms := float64(d.Milliseconds())
	if i.ewmaLatencyMs == 0 {
		i.ewmaLatencyMs = ms
		return
	}
	i.ewmaLatencyMs = ewmaAlpha*ms + (1-ewmaAlpha)*i.ewmaLatencyMs
}

// LatencyMs returns the current EWMA latency estimate in milliseconds.
func (i *Instance) LatencyMs() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ewmaLatencyMs
}

// SetHealthy records the instance's last health-probe result.
func (i *Instance) SetHealthy(healthy bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.healthy = healthy
}

// Healthy reports the instance's last recorded health-probe result.
func (i *Instance) Healthy() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.healthy
}
