package loadbalancer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgateway/gatewayd/pkg/gwerrors"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker()
	for i := 0; i < defaultBreakerFailureThreshold; i++ {
		assert.True(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker()
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())

	for i := 0; i < defaultBreakerFailureThreshold-1; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, BreakerClosed, b.State(), "reset count shouldn't trip on fewer than threshold failures")
}

func TestRoundRobin_CyclesEvenly(t *testing.T) {
	instances := []*Instance{NewInstance("a", 1, 0), NewInstance("b", 1, 0), NewInstance("c", 1, 0)}
	pool := NewPool(instances, StrategyRoundRobin)

	seen := map[string]int{}
	for i := 0; i < 9; i++ {
		inst, release, err := pool.Pick()
		require.NoError(t, err)
		seen[inst.Name]++
		release()
	}
	assert.Equal(t, 3, seen["a"])
	assert.Equal(t, 3, seen["b"])
	assert.Equal(t, 3, seen["c"])
}

func TestLeastConnections_PrefersIdleInstance(t *testing.T) {
	busy := NewInstance("busy", 1, 0)
	idle := NewInstance("idle", 1, 0)
	releaseBusy := busy.Acquire()
	defer releaseBusy()

	pool := NewPool([]*Instance{busy, idle}, StrategyLeastConns)
	inst, release, err := pool.Pick()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "idle", inst.Name)
}

func TestPool_SkipsOpenCircuits(t *testing.T) {
	broken := NewInstance("broken", 1, 0)
	for i := 0; i < defaultBreakerFailureThreshold; i++ {
		broken.Breaker.Allow()
		broken.Breaker.RecordFailure()
	}
	healthy := NewInstance("healthy", 1, 0)

	pool := NewPool([]*Instance{broken, healthy}, StrategyRoundRobin)
	for i := 0; i < 5; i++ {
		inst, release, err := pool.Pick()
		require.NoError(t, err)
		assert.Equal(t, "healthy", inst.Name)
		release()
	}
}

func TestPool_AllCircuitsOpenReturnsUpstreamError(t *testing.T) {
	broken := NewInstance("broken", 1, 0)
	for i := 0; i < defaultBreakerFailureThreshold; i++ {
		broken.Breaker.Allow()
		broken.Breaker.RecordFailure()
	}
	pool := NewPool([]*Instance{broken}, StrategyRoundRobin)

	_, _, err := pool.Pick()
	require.Error(t, err)
	assert.True(t, gwerrors.Is(err, gwerrors.Upstream))
}

func TestInstance_AcquireRespectsConcurrencyLimit(t *testing.T) {
	inst := NewInstance("a", 1, 1)
	release1 := inst.Acquire()
	assert.Equal(t, 1, inst.ActiveRequests())

	acquired := make(chan struct{})
	go func() {
		release2 := inst.Acquire()
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked while the first permit was held")
	case <-time.After(30 * time.Millisecond):
	}

	release1()
	<-acquired
}

func TestRetryDo_RetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return gwerrors.New(gwerrors.Upstream, "transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryDo_DoesNotRetryNonRetryableErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return gwerrors.New(gwerrors.BadRequest, "bad input")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryDo_HonorsRetryAfterHint(t *testing.T) {
	start := time.Now()
	attempts := 0
	err := Do(context.Background(), RetryConfig{MaxRetries: 1, InitialDelay: time.Hour}, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return gwerrors.New(gwerrors.TooManyRequests, "slow down").WithRetryAfter(0)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "a zero-second Retry-After hint should override the hour-long backoff")
}

func TestCoalescer_DeliversSameResultToAllWaiters(t *testing.T) {
	var calls int
	var mu sync.Mutex
	c := NewCoalescer(10*time.Millisecond, func(key string) (interface{}, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "result-for-" + key, nil
	})

	var wg sync.WaitGroup
	results := make([]interface{}, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Request("k")
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	for _, r := range results {
		assert.Equal(t, "result-for-k", r)
	}
}

func TestCoalescer_PropagatesDispatchError(t *testing.T) {
	c := NewCoalescer(5*time.Millisecond, func(key string) (interface{}, error) {
		return nil, errors.New("boom")
	})
	_, err := c.Request("k")
	assert.Error(t, err)
}
