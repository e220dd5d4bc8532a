package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/docket/config"
	"github.com/use-agent/docket/models"
)

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimit applies a token bucket per caller identity: the API key when the
// auth middleware set one, the client IP otherwise. A portal-sync job polling
// the report endpoint in a tight loop gets throttled without starving other
// callers.
//
// Buckets idle for an hour are dropped by a sweep every five minutes.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	var mu sync.Mutex
	buckets := make(map[string]*clientLimiter)

	limiterFor := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		cl, ok := buckets[identity]
		if !ok {
			cl = &clientLimiter{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			buckets[identity] = cl
		}
		cl.seen = time.Now()
		return cl.limiter
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour)
			mu.Lock()
			for id, cl := range buckets {
				if cl.seen.Before(cutoff) {
					delete(buckets, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		if !limiterFor(identity.(string)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.APIResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
