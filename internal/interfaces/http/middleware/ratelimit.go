package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key. Idle buckets are dropped
// lazily on the next Allow after idleTTL.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	sweep   time.Time
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows perSecond sustained requests with bursts of burst per key
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 5 * time.Minute,
		now:     time.Now,
	}
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.sweep) > rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) > rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.sweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Burst is the bucket size
func (rl *RateLimiter) Burst() int { return rl.burst }

// RateLimit limits by client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits by a caller supplied key
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
		if !limiter.Allow(keyFunc(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited,
					"Too many requests. Please try again later.", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
