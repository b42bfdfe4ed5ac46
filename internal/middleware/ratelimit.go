package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/franciscosanchezn/gin-hr-identity/internal/metrics"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP and route.
type RateLimiter struct {
	perMinute int
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		visitors:  make(map[string]*visitor),
		now:       time.Now,
	}
}

func (l *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware allows perMinute requests per client IP and route with bursts up
// to the same size. Rejected requests get 429 with Retry-After.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perMinute <= 0 {
			c.Next()
			return
		}

		now := l.now()
		route := c.FullPath()
		limiter := l.limiterFor(c.ClientIP()+"|"+route, now)

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		reservation := limiter.ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			retryAfter := int(math.Ceil(delay.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Remaining", "0")
			metrics.RateLimited.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewAPIError(
				models.ErrTooManyRequests,
				"Too many requests, retry in "+strconv.Itoa(retryAfter)+" seconds",
			))
			return
		}

		remaining := int(math.Floor(limiter.TokensAt(now)))
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

// RateLimit is a shorthand for NewRateLimiter(perMinute).Middleware().
func RateLimit(perMinute int) gin.HandlerFunc {
	return NewRateLimiter(perMinute).Middleware()
}
