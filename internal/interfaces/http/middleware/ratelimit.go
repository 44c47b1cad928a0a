package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/ratelimit"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ErrRateLimited is reported when a client exceeds its budget
var ErrRateLimited = shared.NewDomainError(dto.ErrCodeRateLimited, "Too many requests. Please try again later.")

// RateLimit limits requests per client IP and route using limiter.
// Rejections carry a Retry-After header.
func RateLimit(limiter *ratelimit.KeyedLimiter, metrics *telemetry.Metrics, onError ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		ok, retry := limiter.Allow(c.ClientIP()+"|"+route, time.Now())
		if !ok {
			metrics.RateLimited(route)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			onError(c, ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
