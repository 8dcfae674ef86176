package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/formula-ihu/quiz-api/internal/domain/repository"
)

// RateLimitConfig holds the settings of one limited route
type RateLimitConfig struct {
	// MaxRequests allowed per Window; zero or less disables the limit
	MaxRequests int
	Window      time.Duration
	// KeyPrefix namespaces the counters in the cache
	KeyPrefix string
}

// ProgressRateLimitConfig covers autosave traffic: one save every ~2s plus the 30s tick.
func ProgressRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{MaxRequests: maxRequests, Window: window, KeyPrefix: "rl:quiz:progress"}
}

// SubmitRateLimitConfig is strict: a team submits once, retries are rare.
func SubmitRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{MaxRequests: maxRequests, Window: window, KeyPrefix: "rl:quiz:submit"}
}

// AdminLoginRateLimitConfig guards the shared admin password from brute force.
func AdminLoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxRequests: 5, Window: time.Minute, KeyPrefix: "rl:admin:login"}
}

// RateLimiter counts requests per client IP in the shared cache.
type RateLimiter struct {
	counters repository.CacheRepository
}

// NewRateLimiter creates a RateLimiter
func NewRateLimiter(counters repository.CacheRepository) *RateLimiter {
	return &RateLimiter{counters: counters}
}

// Limit returns a gin middleware keyed by IP and route pattern.
// Cache errors let the request through (fail-open).
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.MaxRequests <= 0 || rl.counters == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, clientIP, path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.counters.Increment(ctx, key, cfg.Window)
		if err != nil {
			log.Printf("[RateLimiter] Cache error for key %s: %v. Allowing request (fail-open).", key, err)
			c.Next()
			return
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := strconv.Itoa(int(cfg.Window.Seconds()))

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > cfg.MaxRequests {
			log.Printf("[RateLimiter] Rate limit exceeded for IP=%s path=%s. Count=%d, Limit=%d",
				clientIP, path, count, cfg.MaxRequests)

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests. Please try again later.",
				"error_type": "rate_limited",
			})
			return
		}

		c.Next()
	}
}
