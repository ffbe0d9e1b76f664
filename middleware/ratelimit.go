package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// attempts is a sliding window of request times per client.
type attempts struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	seen   map[string][]time.Time
}

func newAttempts(max int, window time.Duration) *attempts {
	return &attempts{max: max, window: window, seen: make(map[string][]time.Time)}
}

// recent drops the times of key that fell out of the window. Callers hold mu.
func (a *attempts) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-a.window)
	kept := a.seen[key][:0]
	for _, t := range a.seen[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// allow records an attempt for key unless the window is already full.
func (a *attempts) allow(key string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.recent(key, now)
	if len(kept) >= a.max {
		a.seen[key] = kept
		return false
	}
	a.seen[key] = append(kept, now)
	return true
}

// sweep forgets clients with no attempt inside the window.
func (a *attempts) sweep(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key := range a.seen {
		if kept := a.recent(key, now); len(kept) == 0 {
			delete(a.seen, key)
		} else {
			a.seen[key] = kept
		}
	}
}

// LoginRateLimit allows maxAttempts requests per client IP within window and answers 429 beyond that.
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	limiter := newAttempts(maxAttempts, window)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			limiter.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip, time.Now()) {
			Logger(c).WithField("client_ip", ip).Warn("login rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Too many login attempts, try again later",
			})
			return
		}
		c.Next()
	}
}
