package handler

import (
	"errors"
	"io"
	"net/http"

	cartapp "github.com/EthanMadison/hack-yourself.shop/internal/application/cart"
	checkoutapp "github.com/EthanMadison/hack-yourself.shop/internal/application/checkout"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// checkoutForm is the submitted checkout form. Blank fields are checked by
// the checkout service, which falls back to the profile address.
type checkoutForm struct {
	Name    string `form:"name" binding:"max=200"`
	Email   string `form:"email" binding:"max=254"`
	Address string `form:"address" binding:"max=1000"`
}

// CheckoutHandler places orders and receives payment callbacks
type CheckoutHandler struct {
	BaseHandler
	checkout *checkoutapp.Service
	cart     *cartapp.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(base BaseHandler, checkout *checkoutapp.Service, cart *cartapp.Service) *CheckoutHandler {
	return &CheckoutHandler{BaseHandler: base, checkout: checkout, cart: cart}
}

// Form shows the checkout form prefilled from the profile
func (h *CheckoutHandler) Form(c *gin.Context) {
	h.renderForm(c, h.checkout.Prefill(buyer(c)))
}

func (h *CheckoutHandler) renderForm(c *gin.Context, form checkoutapp.Form) {
	view, err := h.cart.View(c.Request.Context(), middleware.GetSession(c).Cart())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := h.Page(c, h.T(c, "site.checkout"), gin.H{"Cart": view, "Form": form})
	page.PaymentsEnabled = h.checkout.PaymentsEnabled()
	c.HTML(http.StatusOK, "checkout", page)
}

// Place turns the cart into an order, then sends the customer to the
// payment page or straight to the thank-you page.
func (h *CheckoutHandler) Place(c *gin.Context) {
	var in checkoutForm
	bindErr := middleware.Bind(c, &in)
	form := checkoutapp.Form{Name: in.Name, Email: in.Email, Address: in.Address}
	if bindErr != nil {
		h.FlashError(c, bindErr)
		h.renderForm(c, form)
		return
	}
	s := middleware.GetSession(c)
	res, err := h.checkout.PlaceOrder(c.Request.Context(), s.Cart(), form, buyer(c))
	switch {
	case errors.Is(err, order.ErrMissingDetails):
		h.FlashError(c, err)
		h.renderForm(c, form)
		return
	case errors.Is(err, order.ErrEmptyOrder):
		h.FlashError(c, err)
		h.Redirect(c, "/")
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	s.MarkDirty()

	if res.RedirectURL != "" {
		c.Redirect(http.StatusSeeOther, res.RedirectURL)
		return
	}
	if res.PaymentUnavailable {
		h.Flash(c, session.FlashError, "flash.payment_unavailable")
	}
	h.HTML(c, http.StatusOK, "thankyou", h.T(c, "site.thank_you"), gin.H{"Order": res.Order})
}

// PaymentSuccess is where the payment page returns after paying
func (h *CheckoutHandler) PaymentSuccess(c *gin.Context) {
	id, err := queryID(c, "order_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	o, err := h.checkout.PaymentSucceeded(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "thankyou", h.T(c, "site.thank_you"), gin.H{"Order": o})
}

// PaymentCancel is where the payment page returns when the customer gives up
func (h *CheckoutHandler) PaymentCancel(c *gin.Context) {
	id, err := queryID(c, "order_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if _, err := h.checkout.PaymentCanceled(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Flash(c, session.FlashInfo, "flash.payment_canceled")
	h.Redirect(c, "/checkout")
}

// Webhook receives signed payment events. It always answers JSON.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.webhookError(c, middleware.ErrPayloadTooLarge)
			return
		}
		h.webhookError(c, shared.ErrInvalidInput.Wrap(err))
		return
	}
	if err := h.checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader)); err != nil {
		h.webhookError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{OK: true})
}

func (h *CheckoutHandler) webhookError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Payment webhook failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Internal server error", middleware.GetRequestID(c)))
		return
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(domainErr.Code),
		dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, middleware.GetRequestID(c)))
}

func queryID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		return uuid.Nil, shared.ErrNotFound
	}
	return id, nil
}
