package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"user-management-service/pkg/logger"
)

// RequestID makes sure every request carries an X-Request-ID. A client supplied
// value is kept; otherwise one is generated. The ID is echoed in the response
// and stored in the request context for logger.WithContext.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Header(logger.RequestIDHeader, requestID)

		c.Next()
	}
}
