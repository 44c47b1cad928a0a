package handler

import (
	"errors"
	"net/http"

	identityapp "github.com/EthanMadison/hack-yourself.shop/internal/application/identity"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/identity"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign up, login and the emailed account links
type AuthHandler struct {
	BaseHandler
	auth *identityapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(base BaseHandler, auth *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, auth: auth}
}

// RegisterForm shows the sign up form
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "register", h.T(c, "site.register"), gin.H{"Email": ""})
}

// Register creates an account and shows its confirmation link
func (h *AuthHandler) Register(c *gin.Context) {
	email := c.PostForm("email")
	res, err := h.auth.Register(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		if h.FlashError(c, err) {
			h.HTML(c, http.StatusOK, "register", h.T(c, "site.register"), gin.H{"Email": email})
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.registered", "link", res.ConfirmLink)
	h.Redirect(c, "/login")
}

// LoginForm shows the login form
func (h *AuthHandler) LoginForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "login", h.T(c, "site.login"), gin.H{
		"Next":  safeNext(c.Query("next"), ""),
		"Email": "",
	})
}

// Login signs the visitor in and continues to next, if it is local
func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	next := safeNext(c.Query("next"), "")
	user, err := h.auth.Login(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		if h.FlashError(c, err) {
			h.HTML(c, http.StatusOK, "login", h.T(c, "site.login"), gin.H{"Next": next, "Email": email})
		}
		return
	}
	middleware.GetSession(c).Login(user.ID)
	if next == "" {
		next = "/"
	}
	h.Redirect(c, next)
}

// Logout ends the session's login and keeps the cart
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.GetSession(c).Logout()
	h.Flash(c, session.FlashInfo, "flash.logged_out")
	h.Redirect(c, "/")
}

// SendConfirmation issues a new email confirmation link
func (h *AuthHandler) SendConfirmation(c *gin.Context) {
	user := middleware.GetUser(c)
	res, err := h.auth.SendConfirmation(c.Request.Context(), user.ID)
	if err != nil {
		if h.FlashError(c, err) {
			h.Redirect(c, "/profile")
		}
		return
	}
	if res.AlreadyConfirmed {
		h.Flash(c, session.FlashInfo, "flash.already_confirmed")
	} else {
		h.Flash(c, session.FlashInfo, "flash.confirm_link", "link", res.Link)
	}
	h.Redirect(c, "/profile")
}

// Confirm marks the signed-in user's email as confirmed. A token issued
// to another account is forbidden.
func (h *AuthHandler) Confirm(c *gin.Context) {
	user := middleware.GetUser(c)
	err := h.auth.ConfirmEmail(c.Request.Context(), user.ID, c.Param("token"))
	switch {
	case errors.Is(err, shared.ErrForbidden):
		h.HandleError(c, err)
		return
	case err != nil:
		if !h.FlashError(c, err) {
			return
		}
	default:
		h.Flash(c, session.FlashSuccess, "flash.email_confirmed")
	}
	h.Redirect(c, "/profile")
}

// ForgotForm shows the password recovery form
func (h *AuthHandler) ForgotForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "password_forgot", h.T(c, "site.reset_password"), nil)
}

// Forgot issues a reset link. The answer does not reveal whether the
// account exists.
func (h *AuthHandler) Forgot(c *gin.Context) {
	link, err := h.auth.ForgotPassword(c.Request.Context(), c.PostForm("email"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if link != "" {
		h.Flash(c, session.FlashInfo, "flash.reset_link", "link", link)
	} else {
		h.Flash(c, session.FlashInfo, "flash.reset_sent")
	}
	h.Redirect(c, "/login")
}

// ResetForm shows the new password form for a valid reset token
func (h *AuthHandler) ResetForm(c *gin.Context) {
	token := c.Param("token")
	if err := h.auth.CheckResetToken(c.Request.Context(), token); err != nil {
		if h.FlashError(c, err) {
			h.Redirect(c, "/password/forgot")
		}
		return
	}
	h.HTML(c, http.StatusOK, "password_reset", h.T(c, "site.reset_password"), gin.H{"Token": token})
}

// Reset sets a new password. Input mistakes keep the visitor on the
// form; a dead token sends them back to request a new one.
func (h *AuthHandler) Reset(c *gin.Context) {
	token := c.Param("token")
	err := h.auth.ResetPassword(c.Request.Context(), token, c.PostForm("password"), c.PostForm("password2"))
	switch {
	case err == nil:
		h.Flash(c, session.FlashSuccess, "flash.password_changed")
		h.Redirect(c, "/login")
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrPasswordMismatch):
		h.FlashError(c, err)
		h.Redirect(c, c.Request.URL.Path)
	default:
		if h.FlashError(c, err) {
			h.Redirect(c, "/password/forgot")
		}
	}
}
