package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize is used when no limit is configured (1 MiB)
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes and
// caps the body reader for requests that do not declare one
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body too large",
				c.GetString(RequestIDKey),
			))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
