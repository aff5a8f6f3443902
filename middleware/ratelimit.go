package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterStore manages per-client rate limiters: client key -> rate limiter
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewRateLimiterStore creates a store handing out limiters with the given rate and burst
func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

// GetLimiter returns the limiter of key, creating it on first use
func (s *RateLimiterStore) GetLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[key] = limiter
	}
	return limiter
}

// Len returns the number of tracked clients
func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimit rejects requests from a client IP that exceeded its budget
func RateLimit(store *RateLimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := store.GetLimiter(c.ClientIP())
		if limiter.Allow() {
			c.Next()
			return
		}

		retryAfter := time.Second
		if limiter.Limit() > 0 {
			retryAfter = time.Duration(float64(time.Second) / float64(limiter.Limit()))
		}
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))

		logger.Named("ratelimit").Warn("rate limit exceeded",
			zap.String("client_ip", c.ClientIP()),
			zap.String("path", c.FullPath()))

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RATE_LIMITED",
				"message": "Too many requests, please try again later",
			},
		})
	}
}
