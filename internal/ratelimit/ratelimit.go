// Package ratelimit throttles mutating API calls per caller with sliding
// minute and hour windows.
package ratelimit

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/middleware"
)

// window holds the request times of one caller
type window struct {
	minute []time.Time
	hour   []time.Time
}

// RateLimiter tracks request times per key (user id or client IP)
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool
	now               func() time.Time

	windows map[string]*window
	mu      sync.Mutex
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: cfg.RequestsPerMinute,
		requestsPerHour:   cfg.RequestsPerHour,
		enabled:           cfg.Enabled,
		now:               time.Now,
		windows:           make(map[string]*window),
	}
}

// Allow records a request for key and reports whether it fits the limits.
// Rejected requests are not recorded.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.windowFor(key, now)

	if rl.requestsPerMinute > 0 && len(w.minute) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(w.hour) >= rl.requestsPerHour {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true
}

func (rl *RateLimiter) windowFor(key string, now time.Time) *window {
	w, ok := rl.windows[key]
	if !ok {
		w = &window{}
		rl.windows[key] = w
	}
	w.minute = filterTimes(w.minute, now.Add(-time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-time.Hour))
	return w
}

// Prune drops callers with no requests in the last hour
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.windows {
		w.minute = filterTimes(w.minute, now.Add(-time.Minute))
		w.hour = filterTimes(w.hour, now.Add(-time.Hour))
		if len(w.hour) == 0 {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// GetStats returns current usage for key
func (rl *RateLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.windowFor(key, rl.now())
	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(w.minute),
		RequestsLastHour:    len(w.hour),
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		RemainingThisMinute: max(0, rl.requestsPerMinute-len(w.minute)),
		RemainingThisHour:   max(0, rl.requestsPerHour-len(w.hour)),
		TrackedCallers:      len(rl.windows),
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	TrackedCallers      int  `json:"tracked_callers"`
}

// Reset clears all tracked requests and returns how many callers were
// tracked
func (rl *RateLimiter) Reset() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := len(rl.windows)
	rl.windows = make(map[string]*window)
	return n
}

// Middleware rejects requests over the limit with 429. Authenticated callers
// are keyed by user id, others by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := middleware.CurrentIdentity(c); ok {
			key = "user:" + id.ID
		}
		if !rl.Allow(key) {
			log.Printf("[Rate Limit] rejected key=%s path=%s", key, c.FullPath())
			c.Header("Retry-After", fmt.Sprint(60))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
