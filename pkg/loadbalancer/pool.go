package loadbalancer

import (
	"sync/atomic"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
)

// StrategyKind is the closed set of selection strategies (spec.md §4.K).
type StrategyKind string

const (
	StrategyRoundRobin      StrategyKind = "round_robin"
	StrategyWeighted        StrategyKind = "weighted"
	StrategyLeastConns      StrategyKind = "least_connections"
	StrategyHealthBased     StrategyKind = "health_based"
	StrategyLatencyBased    StrategyKind = "latency_based"
)

// Strategy selects one instance from a candidate pool. A closed
// interface rather than an open plugin registry (spec.md §9: the
// selection axis is a closed sum type), implemented by the five kinds
// above.
type Strategy interface {
	Select(instances []*Instance) *Instance
}

// Pool holds backend instances and selects among them per a
// configured Strategy, skipping instances whose Breaker currently
// denies traffic.
type Pool struct {
	instances []*Instance
	strategy  Strategy
	counter   atomic.Uint64
}

// NewPool builds a pool from instances using the named strategy.
func NewPool(instances []*Instance, kind StrategyKind) *Pool {
	p := &Pool{instances: instances}
	p.strategy = newStrategy(kind, p)
	return p
}

func newStrategy(kind StrategyKind, p *Pool) Strategy {
	switch kind {
	case StrategyWeighted:
		return weightedStrategy{pool: p}
	case StrategyLeastConns:
		return leastConnectionsStrategy{}
	case StrategyHealthBased:
		return healthBasedStrategy{}
	case StrategyLatencyBased:
		return latencyBasedStrategy{}
	default:
		return roundRobinStrategy{pool: p}
	}
}

// Instances returns the pool's members, for introspection
// (pkg/loadbalancer's /lb/status endpoint) rather than selection.
func (p *Pool) Instances() []*Instance {
	return p.instances
}

// Pick selects an available instance and returns it along with a
// release function that must be called exactly once when the request
// completes (releasing its concurrency permit). Returns an Upstream
// gwerror when every instance's breaker currently denies traffic.
func (p *Pool) Pick() (*Instance, func(), error) {
	candidates := make([]*Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		if inst.Breaker.Allow() {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, gwerrors.New(gwerrors.Upstream, "no backend instance available: all circuits open")
	}

	inst := p.strategy.Select(candidates)
	release := inst.Acquire()
	return inst, release, nil
}

type roundRobinStrategy struct{ pool *Pool }

func (s roundRobinStrategy) Select(instances []*Instance) *Instance {
	n := s.pool.counter.Add(1)
	return instances[(n-1)%uint64(len(instances))]
}

type weightedStrategy struct{ pool *Pool }

func (s weightedStrategy) Select(instances []*Instance) *Instance {
	total := 0
	for _, inst := range instances {
		if inst.Weight > 0 {
			total += inst.Weight
		} else {
			total++
		}
	}
	if total == 0 {
		return instances[0]
	}

	n := int(s.pool.counter.Add(1)) % total
	for _, inst := range instances {
		w := inst.Weight
		if w <= 0 {
			w = 1
		}
		if n < w {
			return inst
		}
		n -= w
	}
	return instances[len(instances)-1]
}

type leastConnectionsStrategy struct{}

func (leastConnectionsStrategy) Select(instances []*Instance) *Instance {
	best := instances[0]
	for _, inst := range instances[1:] {
		if inst.ActiveRequests() < best.ActiveRequests() {
			best = inst
		}
	}
	return best
}

type healthBasedStrategy struct{}

func (healthBasedStrategy) Select(instances []*Instance) *Instance {
	for _, inst := range instances {
		if inst.Healthy() {
			return inst
		}
	}
	return instances[0]
}

type latencyBasedStrategy struct{}

func (latencyBasedStrategy) Select(instances []*Instance) *Instance {
	best := instances[0]
	for _, inst := range instances[1:] {
		if inst.LatencyMs() > 0 && (best.LatencyMs() == 0 || inst.LatencyMs() < best.LatencyMs()) {
			best = inst
		}
	}
	return best
}
