// Package cache implements the gateway's response cache: entries keyed
// by request fingerprint, TTL expiry, and a choice of LRU/LFU/FIFO
// eviction policies. Grounded on the teacher's
// examples/middleware/caching/main.go MemoryCache (RWMutex + map +
// background cleanup goroutine + hit/miss/eviction stats),
// generalized from a single oldest-evict policy to the three
// strategies the gateway configures.
package cache

import (
	"sync"
	"time"

	"github.com/llmgateway/gatewayd/pkg/gwtypes"
)

// Strategy is the closed set of eviction policies.
type Strategy string

const (
	StrategyLRU  Strategy = "lru"
	StrategyLFU  Strategy = "lfu"
	StrategyFIFO Strategy = "fifo"
)

// bytesPerEntry is the fixed per-entry memory estimate used for the
// cache's usage metric; spec.md leaves real size measurement open and
// the teacher's own caching example never measures it either.
const bytesPerEntry = 1024

// defaultMinResponseSize is the minimum response body size, in bytes, worth
// caching; smaller responses aren't worth the map/lock overhead.
const defaultMinResponseSize = 100

// entry is one cached response.
type entry struct {
	response    *gwtypes.ChatResponse
	storedAt    time.Time
	expiresAt   time.Time
	lastUsedAt  time.Time
	hitCount    int
	insertOrder uint64
}

// Stats reports cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns Hits / (Hits + Misses), or 0 when there have been no
// lookups yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a fingerprint-keyed response cache with TTL expiry and a
// configurable eviction strategy.
type Cache struct {
	mu       sync.RWMutex
	entries  map[gwtypes.Fingerprint]*entry
	strategy Strategy
	ttl      time.Duration
	maxSize  int

	minResponseSize int
	nextInsertOrder uint64

	stats Stats

	stopCleanup chan struct{}
}

// Options configures a Cache.
type Options struct {
	Strategy        Strategy
	TTL             time.Duration
	MaxSize         int
	MinResponseSize int
	SweepInterval   time.Duration
}

// New builds a cache and starts its background expiry-sweep goroutine.
// Call Close to stop the goroutine.
func New(opts Options) *Cache {
	if opts.MinResponseSize <= 0 {
		opts.MinResponseSize = defaultMinResponseSize
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyLRU
	}

	c := &Cache{
		entries:         make(map[gwtypes.Fingerprint]*entry),
		strategy:        opts.Strategy,
		ttl:             opts.TTL,
		maxSize:         opts.MaxSize,
		minResponseSize: opts.MinResponseSize,
		stopCleanup:     make(chan struct{}),
	}

	go c.sweepLoop(opts.SweepInterval)
	return c
}

// Close stops the background sweep goroutine.
func (c *Cache) Close() {
	close(c.stopCleanup)
}

// Get returns the cached response for a fingerprint, if present and
// unexpired, recording a hit or miss.
func (c *Cache) Get(fp gwtypes.Fingerprint) (*gwtypes.ChatResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok || time.Now().After(e.expiresAt) {
		c.stats.Misses++
		return nil, false
	}

	e.hitCount++
	e.lastUsedAt = time.Now()
	c.stats.Hits++
	return e.response, true
}

// Put stores a response under its fingerprint, skipping responses
// smaller than minResponseSize and evicting per the configured
// strategy if the cache is already at capacity.
func (c *Cache) Put(fp gwtypes.Fingerprint, resp *gwtypes.ChatResponse, approxResponseBytes int) {
	if approxResponseBytes < c.minResponseSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	now := time.Now()
	c.nextInsertOrder++
	c.entries[fp] = &entry{
		response:    resp,
		storedAt:    now,
		expiresAt:   now.Add(c.ttl),
		lastUsedAt:  now,
		insertOrder: c.nextInsertOrder,
	}
}

// evictLocked removes 25% of maxSize (at least one entry) per the
// configured strategy. Caller must hold c.mu.
func (c *Cache) evictLocked() {
	n := c.maxSize / 4
	if n < 1 {
		n = 1
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}

	type candidate struct {
		fp    gwtypes.Fingerprint
		score int64
	}
	candidates := make([]candidate, 0, len(c.entries))

	for fp, e := range c.entries {
		var score int64
		switch c.strategy {
		case StrategyLFU:
			score = int64(e.hitCount)
		case StrategyFIFO:
			score = int64(e.insertOrder)
		default: // LRU
			score = e.lastUsedAt.UnixNano()
		}
		candidates = append(candidates, candidate{fp, score})
	}

	// Partial selection sort for the n lowest scores (n is small
	// relative to cache size in practice: 25% of max_size).
	for i := 0; i < n; i++ {
		min := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].score < candidates[min].score {
				min = j
			}
		}
		candidates[i], candidates[min] = candidates[min], candidates[i]
		delete(c.entries, candidates[i].fp)
		c.stats.Evictions++
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCleanup:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for fp, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, fp)
			c.stats.Evictions++
		}
	}
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ApproxMemoryBytes estimates cache memory usage at a fixed
// bytes-per-entry, per spec.md's deliberately unmeasured cache
// memory-usage metric.
func (c *Cache) ApproxMemoryBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.entries)) * bytesPerEntry
}
