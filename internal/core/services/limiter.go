package services

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/parcelworks/deedline/internal/core/ports/driven"
)

// DefaultRequestsPerSecond is the request budget for sources that do not
// configure one. Public registries are shared municipal infrastructure;
// the default stays conservative.
const DefaultRequestsPerSecond = 0.5

// LimiterRegistry hands out exactly one token-bucket limiter per source.
// All workers touching the same source share the instance, so their
// combined request rate never exceeds the source's budget. Burst is one:
// requests leave the process evenly spaced, never in clumps.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLimiterRegistry creates an empty registry.
func NewLimiterRegistry() *LimiterRegistry {
	return &LimiterRegistry{limiters: make(map[string]*rate.Limiter)}
}

// For returns the shared limiter for a source, creating it on first use.
func (r *LimiterRegistry) For(sourceID string, requestsPerSecond float64) driven.Waiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[sourceID]; ok {
		return limiter
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	r.limiters[sourceID] = limiter
	return limiter
}
