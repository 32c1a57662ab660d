package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// BackendLimiter caps the request rate per external backend (offer search,
// inspiration lookup, AI scoring) so fan-out bursts stay inside provider quotas.
type BackendLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults Config
}

type Config struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		BurstSize:         20,
	}
}

func NewBackendLimiter(config Config) *BackendLimiter {
	return &BackendLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func NewBackendLimiterWithDefaults() *BackendLimiter {
	return NewBackendLimiter(DefaultConfig())
}

func (b *BackendLimiter) GetLimiter(backend string) *rate.Limiter {
	b.mu.RLock()
	limiter, exists := b.limiters[backend]
	b.mu.RUnlock()

	if exists {
		return limiter
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if limiter, exists = b.limiters[backend]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(b.defaults.RequestsPerSecond), b.defaults.BurstSize)
	b.limiters[backend] = limiter
	return limiter
}

func (b *BackendLimiter) SetBackendLimit(backend string, rps float64, burst int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.limiters[backend] = rate.NewLimiter(rate.Limit(rps), burst)
}

func (b *BackendLimiter) Wait(ctx context.Context, backend string) error {
	return b.GetLimiter(backend).Wait(ctx)
}
