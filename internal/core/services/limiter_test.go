package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterRegistry_SharedPerSource(t *testing.T) {
	registry := NewLimiterRegistry()

	a := registry.For("essex-south", 2)
	b := registry.For("essex-south", 100)

	assert.Same(t, a, b, "all workers on one source must share one limiter")
}

func TestLimiterRegistry_IndependentAcrossSources(t *testing.T) {
	registry := NewLimiterRegistry()

	assert.NotSame(t, registry.For("essex-south", 2), registry.For("essex-north", 2))
}

func TestLimiterRegistry_SpacesConcurrentWaiters(t *testing.T) {
	registry := NewLimiterRegistry()
	limit := registry.For("essex-south", 50)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limit.Wait(context.Background()))
		}()
	}
	wg.Wait()

	// Five requests at 50/s with burst one need at least four 20ms gaps.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterRegistry_ZeroRateUsesDefault(t *testing.T) {
	registry := NewLimiterRegistry()
	limit := registry.For("essex-south", 0)

	// The first token is available immediately even at the slow default.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, limit.Wait(ctx))
}

func TestLimiterRegistry_WaitHonoursCancellation(t *testing.T) {
	registry := NewLimiterRegistry()
	limit := registry.For("essex-south", 0.001)

	require.NoError(t, limit.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, limit.Wait(ctx), "a drained bucket must not block past cancellation")
}
