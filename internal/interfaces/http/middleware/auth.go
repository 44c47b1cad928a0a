package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	identityapp "github.com/EthanMadison/hack-yourself.shop/internal/application/identity"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userKey = "current_user"

// UserLoader looks up the account bound to a session
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identityapp.UserResponse, error)
}

// CurrentUser resolves the session's user. Sessions pointing at deleted
// accounts are logged out.
func CurrentUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := GetSession(c)
		id, ok := s.UserID()
		if !ok {
			c.Next()
			return
		}
		user, err := users.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(userKey, user)
			c.Set(logger.GinUserIDKey, user.ID.String())
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID.String()))
		case errors.Is(err, shared.ErrNotFound):
			s.Logout()
		default:
			logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Failed to load current user", zap.Error(err))
		}
		c.Next()
	}
}

// GetUser returns the signed-in user or nil
func GetUser(c *gin.Context) *identityapp.UserResponse {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*identityapp.UserResponse); ok {
			return u
		}
	}
	return nil
}

// RequireLogin sends anonymous visitors to the login page, remembering
// where they were going. XHR and JSON callers get a 401 instead.
func RequireLogin(bundle *i18n.Bundle, onError ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) != nil {
			c.Next()
			return
		}
		if WantsJSON(c) {
			onError(c, shared.ErrUnauthorized)
			c.Abort()
			return
		}
		GetSession(c).AddFlash(session.FlashInfo, bundle.T(GetLang(c), "flash.login_required"))
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RequireAdmin answers 403 to everyone but admins. Must run after
// RequireLogin.
func RequireAdmin(onError ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := GetUser(c); u == nil || !u.IsAdmin {
			onError(c, shared.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// WantsJSON reports whether the caller expects a JSON answer
func WantsJSON(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest" || isJSON(c)
}
