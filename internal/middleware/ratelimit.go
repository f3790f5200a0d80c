package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerMin  int
	BurstSize       int
	CleanupInterval time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped during a request once CleanupInterval has passed, so there is
// no background goroutine to stop.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientLimiter
	limit       rate.Limit
	burst       int
	idleAfter   time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	perMin := config.RequestsPerMin
	if perMin <= 0 {
		perMin = 100
	}
	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	idle := config.CleanupInterval
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &RateLimiter{
		clients:     make(map[string]*clientLimiter),
		limit:       rate.Limit(float64(perMin) / 60.0),
		burst:       burst,
		idleAfter:   idle,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= rl.idleAfter {
		for k, client := range rl.clients {
			if now.Sub(client.lastSeen) >= rl.idleAfter {
				delete(rl.clients, k)
			}
		}
		rl.lastCleanup = now
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
