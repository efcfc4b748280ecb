package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Mnemo/pkg/ratelimiter"
)

// RateLimit rejects requests with 429 once the bucket is drained.
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
