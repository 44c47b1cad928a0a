package handler

import (
	"net/http"
	"strconv"
	"strings"

	catalogapp "github.com/EthanMadison/hack-yourself.shop/internal/application/catalog"
	orderapp "github.com/EthanMadison/hack-yourself.shop/internal/application/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// productForm holds the product form as typed, so a rejected form can be
// shown again unchanged.
type productForm struct {
	Name        string `form:"name"`
	Price       string `form:"price" binding:"max=32"`
	Description string `form:"description" binding:"max=10000"`
	ImageURL    string `form:"image" binding:"max=2048"`
	CategoryID  string `form:"category_id" binding:"omitempty,uuid"`
}

// AdminHandler serves the admin panel
type AdminHandler struct {
	BaseHandler
	categories *catalogapp.CategoryService
	products   *catalogapp.ProductService
	orders     *orderapp.Service
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	base BaseHandler,
	categories *catalogapp.CategoryService,
	products *catalogapp.ProductService,
	orders *orderapp.Service,
) *AdminHandler {
	return &AdminHandler{BaseHandler: base, categories: categories, products: products, orders: orders}
}

// Dashboard shows catalog and order counters
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.products.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "admin/index", h.T(c, "site.admin"), gin.H{"Stats": stats})
}

// Categories lists categories
func (h *AdminHandler) Categories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "admin/categories", h.T(c, "site.categories"), gin.H{"Categories": categories})
}

// NewCategory shows an empty category form
func (h *AdminHandler) NewCategory(c *gin.Context) {
	h.categoryForm(c, nil, "/admin/categories/new", "")
}

// CreateCategory adds a category
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	name := c.PostForm("name")
	if _, err := h.categories.Create(c.Request.Context(), name); err != nil {
		if h.FlashError(c, err) {
			h.categoryForm(c, nil, "/admin/categories/new", name)
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.category_saved")
	h.Redirect(c, "/admin/categories")
}

// EditCategory shows the form for an existing category
func (h *AdminHandler) EditCategory(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}
	h.categoryForm(c, category, c.Request.URL.Path, category.Name)
}

// UpdateCategory renames a category
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	category, ok := h.category(c)
	if !ok {
		return
	}
	name := c.PostForm("name")
	if _, err := h.categories.Rename(c.Request.Context(), category.ID, name); err != nil {
		if h.FlashError(c, err) {
			h.categoryForm(c, category, c.Request.URL.Path, name)
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.category_saved")
	h.Redirect(c, "/admin/categories")
}

// DeleteCategory removes a category. Its products stay uncategorised.
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Flash(c, session.FlashInfo, "flash.category_deleted")
	h.Redirect(c, "/admin/categories")
}

func (h *AdminHandler) category(c *gin.Context) (*catalogapp.CategoryResponse, bool) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	category, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return category, true
}

func (h *AdminHandler) categoryForm(c *gin.Context, category *catalogapp.CategoryResponse, action, name string) {
	h.HTML(c, http.StatusOK, "admin/category_form", h.T(c, "site.categories"), gin.H{
		"Category": category,
		"Action":   action,
		"Name":     name,
	})
}

// Products lists all products
func (h *AdminHandler) Products(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "admin/products", h.T(c, "site.products"), gin.H{"Products": products})
}

// NewProduct shows an empty product form
func (h *AdminHandler) NewProduct(c *gin.Context) {
	h.productForm(c, productForm{}, false, "/admin/products/new")
}

// CreateProduct adds a product. The image comes from the URL field or an
// uploaded file, the file winning.
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	form, err := readProductForm(c)
	if err != nil {
		if h.FlashError(c, err) {
			h.productForm(c, form, false, "/admin/products/new")
		}
		return
	}
	req := form.request()
	if file, ok := formFile(c, "file"); ok {
		defer file.Close()
		req.Upload = file
	}
	if _, err := h.products.Create(c.Request.Context(), req); err != nil {
		if h.FlashError(c, err) {
			h.productForm(c, form, false, "/admin/products/new")
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.product_saved")
	h.Redirect(c, "/admin/products")
}

// EditProduct shows the form for an existing product
func (h *AdminHandler) EditProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	form := productForm{
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		ImageURL:    p.Image,
	}
	if p.CategoryID != nil {
		form.CategoryID = p.CategoryID.String()
	}
	h.productForm(c, form, true, c.Request.URL.Path)
}

// UpdateProduct saves the product form
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	form, err := readProductForm(c)
	if err != nil {
		if h.FlashError(c, err) {
			h.productForm(c, form, true, c.Request.URL.Path)
		}
		return
	}
	req := form.request()
	if file, ok := formFile(c, "file"); ok {
		defer file.Close()
		req.Upload = file
	}
	if _, err := h.products.Update(c.Request.Context(), id, req); err != nil {
		if h.FlashError(c, err) {
			h.productForm(c, form, true, c.Request.URL.Path)
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.product_saved")
	h.Redirect(c, "/admin/products")
}

// DeleteProduct removes a product
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Flash(c, session.FlashInfo, "flash.product_deleted")
	h.Redirect(c, "/admin/products")
}

func (h *AdminHandler) productForm(c *gin.Context, form productForm, editing bool, action string) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.HTML(c, http.StatusOK, "admin/product_form", h.T(c, "site.products"), gin.H{
		"Form":       form,
		"Editing":    editing,
		"Action":     action,
		"Categories": categories,
	})
}

func readProductForm(c *gin.Context) (productForm, error) {
	var form productForm
	err := middleware.Bind(c, &form)
	return form, err
}

func (f productForm) request() catalogapp.ProductRequest {
	return catalogapp.ProductRequest{
		Name:        f.Name,
		Price:       f.Price,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		CategoryID:  f.CategoryID,
	}
}

// Orders lists all orders, newest first, one page at a time
func (h *AdminHandler) Orders(c *gin.Context) {
	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	page, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	statuses := make([]string, 0, len(order.AllStatuses()))
	for _, s := range order.AllStatuses() {
		statuses = append(statuses, s.String())
	}
	h.HTML(c, http.StatusOK, "admin/orders", h.T(c, "site.orders"), gin.H{
		"Page":     page,
		"Statuses": statuses,
	})
}

// OrderStatus changes the status of an order
func (h *AdminHandler) OrderStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	o, err := h.orders.ChangeStatus(c.Request.Context(), id, c.PostForm("status"))
	if err != nil {
		if h.FlashError(c, err) {
			h.Redirect(c, "/admin/orders")
		}
		return
	}
	h.Flash(c, session.FlashSuccess, "flash.status_changed",
		"no", shortID(o.ID.String()),
		"status", h.T(c, "status."+o.Status))
	h.Redirect(c, "/admin/orders")
}

func shortID(id string) string {
	head, _, _ := strings.Cut(id, "-")
	return head
}
