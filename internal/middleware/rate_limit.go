// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront/internal/utils"
)

const (
	visitorTTL      = 3 * time.Minute
	cleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// Run evicts idle visitors every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now.Add(-visitorTTL))
		}
	}
}

// evict drops visitors not seen since cutoff and reports how many remain.
func (rl *RateLimiter) evict(cutoff time.Time) int {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
	return len(rl.visitors)
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimits are the storefront's per-route-class limiters.
type RateLimits struct {
	General *RateLimiter
	Auth    *RateLimiter
	Upload  *RateLimiter
}

// NewRateLimits builds the default limiters and keeps their visitor maps
// trimmed until ctx is done.
func NewRateLimits(ctx context.Context) *RateLimits {
	limits := &RateLimits{
		General: NewRateLimiter(rate.Limit(10), 20),              // 10 requests per second
		Auth:    NewRateLimiter(rate.Every(12*time.Second), 5), // 5 auth requests per minute
		Upload:  NewRateLimiter(rate.Every(6*time.Second), 10), // 10 uploads per minute
	}
	for _, rl := range []*RateLimiter{limits.General, limits.Auth, limits.Upload} {
		go rl.Run(ctx, cleanupInterval)
	}
	return limits
}
