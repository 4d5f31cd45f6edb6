package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key (client IP).
type RateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	counts map[string]int
	resets map[string]time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]int),
		resets: make(map[string]time.Time),
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if reset, ok := rl.resets[key]; !ok || now.After(reset) {
		rl.counts[key] = 0
		rl.resets[key] = now.Add(rl.window)
	}

	if rl.counts[key] >= rl.limit {
		return false
	}
	rl.counts[key]++
	return true
}

func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.window.Seconds(),
			})
			return
		}
		c.Next()
	}
}
