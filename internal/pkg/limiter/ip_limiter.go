/*
Package limiter provides per-IP rate limiting for incoming connections.

It uses the token bucket algorithm (rate.Limiter) to bound the connection
frequency of each client IP and periodically removes idle limiters so the map
does not grow without bound.
*/
package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const cleanupInterval = 3 * time.Minute

// IPRateLimiter tracks one token bucket per client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps client IP addresses to their rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the sustained rate of events allowed per second.
	r rate.Limit

	// b is the burst size of each bucket.
	b int
}

// NewIPRateLimiter creates a limiter with rate r and burst b, and starts a
// background goroutine that evicts idle buckets.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanupIdle()

	return i
}

// GetLimiter returns the rate limiter for the given IP, creating one on first
// sight. Double-checked locking keeps the common path on the read lock.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanupIdle periodically removes limiters whose bucket is full again; those
// IPs have been quiet long enough to forget.
func (i *IPRateLimiter) cleanupIdle() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
			}
		}
		i.mu.Unlock()
	}
}
