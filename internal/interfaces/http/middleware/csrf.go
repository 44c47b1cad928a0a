package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CSRF field and header names
const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// ErrCSRF is reported when an unsafe request lacks the session's token
var ErrCSRF = shared.NewDomainError(dto.ErrCodeCSRF, "Missing or invalid CSRF token")

// CSRF rejects unsafe requests whose token, sent in the csrf_token form
// field or the X-CSRF-Token header, does not match the session's. Paths
// in exempt (exact match) are skipped. Must run after Sessions.
func CSRF(onError ErrorHandler, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			c.Next()
			return
		}
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		expected := GetSession(c).CSRFToken()
		got := c.GetHeader(CSRFHeader)
		if got == "" && !isJSON(c) {
			got = c.PostForm(CSRFFormField)
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			onError(c, ErrCSRF)
			c.Abort()
			return
		}
		c.Next()
	}
}

func isJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}
