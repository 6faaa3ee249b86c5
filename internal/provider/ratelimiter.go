package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket used to pace calls to upstreams with
// request quotas (the balance explorer in particular). A full bucket
// allows a burst of capacity calls; afterwards one token becomes
// available every refillEvery.
type RateLimiter struct {
	mu          sync.Mutex
	available   int
	capacity    int
	refillEvery time.Duration
	last        time.Time
}

func NewRateLimiter(capacity int, refillEvery time.Duration) *RateLimiter {
	return &RateLimiter{
		available:   capacity,
		capacity:    capacity,
		refillEvery: refillEvery,
		last:        time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.topUp(time.Now())
		if r.available > 0 {
			r.available--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		timer := time.NewTimer(r.refillEvery)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RateLimiter) topUp(now time.Time) {
	earned := int(now.Sub(r.last) / r.refillEvery)
	if earned <= 0 {
		return
	}
	r.available += earned
	if r.available > r.capacity {
		r.available = r.capacity
	}
	r.last = r.last.Add(time.Duration(earned) * r.refillEvery)
}
