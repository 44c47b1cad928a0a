package middleware

import (
	"net/http"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ErrPayloadTooLarge is reported for bodies over the configured limit
var ErrPayloadTooLarge = shared.NewDomainError(dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64, onError ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			onError(c, ErrPayloadTooLarge)
			c.Abort()
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
