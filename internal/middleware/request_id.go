package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey holds the id in the gin context for error logs.
	RequestIDKey = "requestID"
)

// RequestID keeps a caller supplied id when it looks sane, otherwise mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
