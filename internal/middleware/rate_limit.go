package middleware

import (
	"fmt"
	"sync"
	"time"

	"directed/internal/observability"
	contextutils "directed/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterTTL is how long a client may stay idle before its bucket is dropped
const limiterTTL = time.Hour

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	perMinute int
	now       func() time.Time
	logger    *observability.Logger
}

// NewRateLimiter allows perMinute requests per client IP, with a burst of the same size
func NewRateLimiter(perMinute int, logger *observability.Logger) *RateLimiter {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
		perMinute: max(perMinute, 1),
		now:       time.Now,
		logger:    logger,
	}
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterTTL {
		rl.evictIdle(now)
		rl.lastSweep = now
	}

	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute),
		}
		rl.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter
}

// evictIdle drops clients not seen within limiterTTL. Caller holds mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.lastSeen) > limiterTTL {
			delete(rl.clients, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.limiterFor(ip).Allow() {
			rl.logger.Warn(c.Request.Context(), "Rate limit exceeded", map[string]interface{}{
				"ip":   ip,
				"path": c.Request.URL.Path,
			})
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeRateLimit,
				contextutils.SeverityWarn,
				"Rate limit exceeded",
				fmt.Sprintf("limit is %d requests per minute", rl.perMinute),
			))
			c.Abort()
			return
		}
		c.Next()
	}
}
