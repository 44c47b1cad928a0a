package middleware

import (
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latencies by route pattern, so
// /product/:id is one series rather than one per product.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
