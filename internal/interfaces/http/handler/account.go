package handler

import (
	"mime/multipart"
	"net/http"

	identityapp "github.com/EthanMadison/hack-yourself.shop/internal/application/identity"
	orderapp "github.com/EthanMadison/hack-yourself.shop/internal/application/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Profile form actions
const (
	actionSaveProfile    = "save_profile"
	actionChangePassword = "change_password"
)

// AccountHandler serves the signed-in customer's orders and profile
type AccountHandler struct {
	BaseHandler
	orders *orderapp.Service
	auth   *identityapp.AuthService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(base BaseHandler, orders *orderapp.Service, auth *identityapp.AuthService) *AccountHandler {
	return &AccountHandler{BaseHandler: base, orders: orders, auth: auth}
}

// Orders lists the customer's orders
func (h *AccountHandler) Orders(c *gin.Context) {
	orders, err := h.orders.AccountOrders(c.Request.Context(), viewer(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "account", h.T(c, "site.account"), gin.H{"Orders": orders})
}

// Order shows one of the customer's orders
func (h *AccountHandler) Order(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	o, err := h.orders.AccountOrder(c.Request.Context(), viewer(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "account_order", h.T(c, "site.order"), gin.H{"Order": o})
}

type profileForm struct {
	FullName       string `form:"full_name" binding:"max=200"`
	DefaultAddress string `form:"default_address" binding:"max=1000"`
}

// ProfileForm shows the profile and password forms
func (h *AccountHandler) ProfileForm(c *gin.Context) {
	h.HTML(c, http.StatusOK, "profile", h.T(c, "site.profile"), nil)
}

// Profile saves the profile or changes the password, depending on the
// submitted action.
func (h *AccountHandler) Profile(c *gin.Context) {
	user := middleware.GetUser(c)
	ctx := c.Request.Context()

	switch c.DefaultPostForm("action", actionSaveProfile) {
	case actionChangePassword:
		err := h.auth.ChangePassword(ctx, user.ID,
			c.PostForm("current_password"), c.PostForm("new_password"), c.PostForm("new_password2"))
		if err != nil {
			if !h.FlashError(c, err) {
				return
			}
		} else {
			h.Flash(c, session.FlashSuccess, "flash.password_changed")
		}
	default:
		var form profileForm
		if err := middleware.Bind(c, &form); err != nil {
			if h.FlashError(c, err) {
				h.Redirect(c, "/profile")
			}
			return
		}
		input := identityapp.ProfileInput{
			FullName:       form.FullName,
			DefaultAddress: form.DefaultAddress,
		}
		if file, ok := formFile(c, "avatar"); ok {
			defer file.Close()
			input.Avatar = file
		}
		if _, err := h.auth.UpdateProfile(ctx, user.ID, input); err != nil {
			if !h.FlashError(c, err) {
				return
			}
		} else {
			h.Flash(c, session.FlashSuccess, "flash.profile_updated")
		}
	}
	h.Redirect(c, "/profile")
}

// formFile opens an uploaded file. An empty or missing file field is
// treated as no upload.
func formFile(c *gin.Context, field string) (multipart.File, bool) {
	header, err := c.FormFile(field)
	if err != nil || header.Filename == "" || header.Size == 0 {
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		return nil, false
	}
	return file, true
}
