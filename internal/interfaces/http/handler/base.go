// Package handler contains the storefront, account and admin page handlers.
package handler

import (
	"errors"
	"net/http"
	"net/url"

	checkoutapp "github.com/EthanMadison/hack-yourself.shop/internal/application/checkout"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/view"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides page rendering and error helpers shared by all handlers
type BaseHandler struct {
	bundle *i18n.Bundle
}

// NewBaseHandler creates a BaseHandler translating with bundle
func NewBaseHandler(bundle *i18n.Bundle) BaseHandler {
	return BaseHandler{bundle: bundle}
}

// T translates key into the request's language
func (h *BaseHandler) T(c *gin.Context, key string, args ...string) string {
	return h.bundle.T(middleware.GetLang(c), key, args...)
}

// Page builds the common template data for the current request
func (h *BaseHandler) Page(c *gin.Context, title string, data any) *view.Page {
	s := middleware.GetSession(c)
	p := view.NewPage(h.bundle, middleware.GetLang(c))
	p.Title = title
	p.User = middleware.GetUser(c)
	p.CartSize = s.Cart().Size()
	p.Flashes = s.PopFlashes()
	p.CSRF = s.CSRFToken()
	p.Query = c.Query("q")
	p.Path = c.Request.URL.Path
	p.Data = data
	return p
}

// HTML renders a page template
func (h *BaseHandler) HTML(c *gin.Context, status int, name, title string, data any) {
	c.HTML(status, name, h.Page(c, title, data))
}

// Flash queues a translated message for the next page
func (h *BaseHandler) Flash(c *gin.Context, kind, key string, args ...string) {
	middleware.GetSession(c).AddFlash(kind, h.T(c, key, args...))
}

// Message returns the user facing text of err
func (h *BaseHandler) Message(c *gin.Context, err error) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return h.bundle.Error(middleware.GetLang(c), domainErr.Code, domainErr.Message)
	}
	return h.bundle.Error(middleware.GetLang(c), dto.ErrCodeInternal, "Internal server error")
}

// FlashError shows a domain error to the visitor on the next page. Any
// other error is answered with HandleError and false is returned, so the
// caller must stop.
func (h *BaseHandler) FlashError(c *gin.Context, err error) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		h.HandleError(c, err)
		return false
	}
	middleware.GetSession(c).AddFlash(session.FlashError, h.Message(c, err))
	return true
}

// HandleError answers with the status of err. JSON callers get the error
// envelope, browsers the error page.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code := dto.ErrCodeInternal
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	} else {
		logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	status := dto.GetHTTPStatus(code)
	message := h.Message(c, err)

	if middleware.WantsJSON(c) {
		c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
		return
	}
	h.HTML(c, status, "error", h.T(c, "site.error_title"), gin.H{
		"Status":  status,
		"Message": message,
	})
	c.Abort()
}

// Redirect answers 303 so that a POST is followed by a GET
func (h *BaseHandler) Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectBack returns to the referring page of this site, or fallback
func (h *BaseHandler) RedirectBack(c *gin.Context, fallback string) {
	h.Redirect(c, sameOrigin(c, c.GetHeader("Referer"), fallback))
}

// sameOrigin returns target as a local URL when it points at this host.
func sameOrigin(c *gin.Context, target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil {
		return fallback
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return fallback
	}
	local := u.EscapedPath()
	if local == "" {
		local = "/"
	}
	if u.RawQuery != "" {
		local += "?" + u.RawQuery
	}
	return safeNext(local, fallback)
}

// safeNext accepts only absolute paths on this site.
func safeNext(next, fallback string) string {
	if len(next) == 0 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return fallback
	}
	return next
}

// pathID parses a uuid route parameter. Malformed ids are not found.
func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, shared.ErrNotFound
	}
	return id, nil
}

// buyer describes the signed-in customer for checkout, or nil for guests
func buyer(c *gin.Context) *checkoutapp.Buyer {
	u := middleware.GetUser(c)
	if u == nil {
		return nil
	}
	return &checkoutapp.Buyer{
		UserID:         u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		DefaultAddress: u.DefaultAddress,
	}
}

// viewer describes who is looking at orders. Must run behind RequireLogin.
func viewer(c *gin.Context) order.Viewer {
	u := middleware.GetUser(c)
	if u == nil {
		return order.Viewer{}
	}
	return order.Viewer{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}
