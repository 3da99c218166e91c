package infrastructure

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window counter keyed by an arbitrary string, used
// to throttle password reset mail per address.
type RateLimiter struct {
	requests map[string][]time.Time
	window   time.Duration
	limit    int
	now      func() time.Time
	mutex    sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.cleanupStaleEntries(time.Hour)
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	validRequests := rl.prune(rl.requests[key], now.Add(-rl.window))

	if len(validRequests) < rl.limit {
		rl.requests[key] = append(validRequests, now)
		return true
	}

	rl.requests[key] = validRequests
	return false
}

func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) prune(requests []time.Time, windowStart time.Time) []time.Time {
	validRequests := requests[:0]
	for _, reqTime := range requests {
		if reqTime.After(windowStart) {
			validRequests = append(validRequests, reqTime)
		}
	}
	return validRequests
}

func (rl *RateLimiter) cleanupStaleEntries(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mutex.Lock()
			cutoff := rl.now().Add(-rl.window)
			for key, requests := range rl.requests {
				validRequests := rl.prune(requests, cutoff)
				if len(validRequests) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = validRequests
				}
			}
			rl.mutex.Unlock()
		}
	}
}
