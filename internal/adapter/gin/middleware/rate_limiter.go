package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	grpcmiddleware "user-management-service/internal/adapter/grpc/middleware"
)

// RateLimiter returns a Gin middleware that takes one token per request from the
// bucket of the calling client, shared with the gRPC interceptor's limiter.
func RateLimiter(limiter *grpcmiddleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		key := fmt.Sprintf("http:%s", c.ClientIP())
		if !limiter.Allow(c.Request.Context(), key) {
			cfg := limiter.Config()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded: %.0f requests/second (burst capacity: %d)",
					cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
