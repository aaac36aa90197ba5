package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Abhisg5/trafficDetector/models"
)

// TrafficCollector fans a location out to every configured provider
// concurrently and keeps whatever succeeded. One provider failing never
// cancels its siblings.
type TrafficCollector struct {
	providers []Provider
}

func NewTrafficCollector(providers ...Provider) *TrafficCollector {
	return &TrafficCollector{providers: providers}
}

// Collect queries all providers in parallel and returns the successful
// samples. Failures are logged and dropped; an empty result means no provider
// had data for the location.
func (c *TrafficCollector) Collect(ctx context.Context, location string) []models.TrafficSample {
	results := make(chan models.TrafficSample, len(c.providers))

	var wg sync.WaitGroup
	for _, provider := range c.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			sample, err := p.Fetch(ctx, location)
			if err != nil {
				log.Printf("provider %s failed for %s: %v", p.Name(), location, err)
				return
			}
			results <- sample
		}(provider)
	}
	wg.Wait()
	close(results)

	var samples []models.TrafficSample
	for sample := range results {
		samples = append(samples, sample)
	}
	return samples
}

// RateLimiter enforces a sliding one-minute request budget. When the budget
// is exhausted, Wait blocks until the window resets.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	count       int
	windowStart time.Time
	now         func() time.Time
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		limit: requestsPerMinute,
		now:   time.Now,
	}
}

// Wait consumes one request from the budget, blocking through the remainder
// of the window if the budget is spent. Returns early if ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()

	now := r.now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= time.Minute {
		r.windowStart = now
		r.count = 0
	}

	if r.count < r.limit {
		r.count++
		r.mu.Unlock()
		return nil
	}

	wait := time.Minute - now.Sub(r.windowStart)
	r.mu.Unlock()

	log.Printf("rate limit reached, waiting %s", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	r.mu.Lock()
	r.windowStart = r.now()
	r.count = 1
	r.mu.Unlock()
	return nil
}

// Remaining reports how many requests are left in the current window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.windowStart.IsZero() || r.now().Sub(r.windowStart) >= time.Minute {
		return r.limit
	}
	return r.limit - r.count
}
