package handler

import (
	"net/http"
	"strconv"
	"strings"

	cartapp "github.com/EthanMadison/hack-yourself.shop/internal/application/cart"
	catalogapp "github.com/EthanMadison/hack-yourself.shop/internal/application/catalog"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/dto"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

const qtyFieldPrefix = "qty_"

// CatalogHandler serves the storefront pages
type CatalogHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(base BaseHandler, products *catalogapp.ProductService) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, products: products}
}

// Index lists products, filtered by the q search parameter
func (h *CatalogHandler) Index(c *gin.Context) {
	products, err := h.products.Browse(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "index", h.T(c, "site.catalog"), gin.H{"Products": products})
}

// Product shows one product
func (h *CatalogHandler) Product(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "product", product.Name, gin.H{"Product": product})
}

// CartHandler serves the session cart
type CartHandler struct {
	BaseHandler
	cart *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(base BaseHandler, cart *cartapp.Service) *CartHandler {
	return &CartHandler{BaseHandler: base, cart: cart}
}

// View shows the cart
func (h *CartHandler) View(c *gin.Context) {
	view, err := h.cart.View(c.Request.Context(), middleware.GetSession(c).Cart())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "cart", h.T(c, "site.cart"), gin.H{"Cart": view})
}

// Add puts a product into the cart. Scripted callers get JSON, browsers
// go back where they came from.
func (h *CartHandler) Add(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(c.DefaultPostForm("qty", "1")))
	if err != nil {
		qty = 1
	}

	s := middleware.GetSession(c)
	res, err := h.cart.Add(c.Request.Context(), s.Cart(), id, qty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	s.MarkDirty()

	if middleware.WantsJSON(c) {
		c.JSON(http.StatusOK, dto.AddToCartResponse{
			OK:       true,
			PID:      res.ProductID.String(),
			Qty:      res.Qty,
			CartSize: res.CartSize,
		})
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.cart_added")
	h.RedirectBack(c, "/")
}

// APIUpdate sets several quantities at once and returns the new totals.
// A malformed body is treated as an empty update.
func (h *CartHandler) APIUpdate(c *gin.Context) {
	var req dto.CartUpdateRequest
	_ = c.ShouldBindJSON(&req)

	updates := make([]cartapp.Update, 0, len(req.Items))
	for _, item := range req.Items {
		qty, ok := item.Quantity()
		if !ok {
			continue
		}
		updates = append(updates, cartapp.Update{ProductID: item.PID, Qty: qty})
	}

	s := middleware.GetSession(c)
	res, err := h.cart.ApplyUpdates(c.Request.Context(), s.Cart(), updates)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	s.MarkDirty()

	c.JSON(http.StatusOK, dto.NewCartUpdateResponse(res.Total, res.Lines, res.CartSize))
}

// Update replaces the cart with the quantities of the cart form
func (h *CartHandler) Update(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.HandleError(c, shared.ErrInvalidInput.Wrap(err))
		return
	}
	quantities := make(map[string]string)
	for key, values := range c.Request.PostForm {
		pid, ok := strings.CutPrefix(key, qtyFieldPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		quantities[pid] = values[0]
	}

	s := middleware.GetSession(c)
	h.cart.Replace(s.Cart(), quantities)
	s.MarkDirty()
	h.Flash(c, session.FlashSuccess, "flash.cart_updated")
	h.Redirect(c, "/cart")
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	s := middleware.GetSession(c)
	s.Cart().Clear()
	s.MarkDirty()
	h.Flash(c, session.FlashInfo, "flash.cart_cleared")
	h.Redirect(c, "/cart")
}
