package middleware

import (
	"github.com/gin-gonic/gin"

	"user-management-service/pkg/logger"
)

// RequestID reuses the caller's X-Request-ID or generates one, echoes it on the
// response and stores it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" {
			id = logger.NewRequestID()
		}

		c.Header(logger.RequestIDHeader, id)
		c.Set(string(logger.RequestIDKey), id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))

		c.Next()
	}
}
