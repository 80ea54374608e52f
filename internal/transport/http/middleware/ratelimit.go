package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "go-gin-gorm-users/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速；rps<=0 不限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}

// RateLimitPerIP 每 IP 一个令牌桶
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*rate.Limiter)
	)
	limiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := buckets[ip]
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			buckets[ip] = lim
		}
		return lim
	}
	return func(c *gin.Context) {
		if limiter(c.ClientIP()).Allow() {
			c.Next()
			return
		}
		abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}
