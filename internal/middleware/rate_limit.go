package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"neurowave-gateway/internal/models"
)

const visitorIdleTTL = 10 * time.Minute

// RateLimitMiddleware applies a token bucket per client IP
type RateLimitMiddleware struct {
	logger   *zap.Logger
	visitors map[string]*visitor
	mutex    sync.Mutex
	rps      rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(logger *zap.Logger, rps float64, burst int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		logger:   logger,
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// RateLimit limits requests based on IP address
func (r *RateLimitMiddleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.limiter(ip, time.Now()).Allow() {
			r.logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: "Rate limit exceeded, please try again later",
			})
			return
		}
		c.Next()
	}
}

func (r *RateLimitMiddleware) limiter(ip string, now time.Time) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, exists := r.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Run removes idle visitors until ctx is done
func (r *RateLimitMiddleware) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.cleanup(now)
		}
	}
}

func (r *RateLimitMiddleware) cleanup(now time.Time) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTTL {
			delete(r.visitors, ip)
		}
	}
}
