package middleware

import (
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/gin-gonic/gin"
)

const langKey = "lang"

// Language picks the page language: a supported ?lang= parameter (which
// is remembered in the session), then the session, then Accept-Language.
func Language(bundle *i18n.Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		lang := c.Query("lang")
		switch {
		case lang != "" && bundle.Supports(lang):
			s.SetLang(lang)
		case s.Lang() != "" && bundle.Supports(s.Lang()):
			lang = s.Lang()
		default:
			lang = bundle.Resolve(c.GetHeader("Accept-Language"))
		}
		c.Set(langKey, lang)
		c.Next()
	}
}

// GetLang returns the language chosen by Language
func GetLang(c *gin.Context) string {
	return c.GetString(langKey)
}
