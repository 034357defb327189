package worker

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key, e.g. per client address.
// Buckets idle for longer than the idle window are dropped.
type Limiter struct {
	buckets *gocache.Cache
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a keyed limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	idle := 10 * time.Minute
	return &Limiter{
		buckets: gocache.New(idle, idle),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

// Enabled reports whether the limiter restricts anything
func (l *Limiter) Enabled() bool {
	return l != nil && l.rate > 0
}

// Allow reports whether key may proceed now
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	return l.bucket(key).Allow()
}

// Wait blocks until key may proceed or ctx ends
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if !l.Enabled() {
		return nil
	}
	return l.bucket(key).Wait(ctx)
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	if b, ok := l.buckets.Get(key); ok {
		l.buckets.SetDefault(key, b)
		return b.(*rate.Limiter)
	}

	b := rate.NewLimiter(l.rate, l.burst)
	// Add fails if another request created the bucket first
	if err := l.buckets.Add(key, b, gocache.DefaultExpiration); err != nil {
		if existing, ok := l.buckets.Get(key); ok {
			return existing.(*rate.Limiter)
		}
	}
	return b
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	return l.buckets.ItemCount()
}
