package router

import (
	"net/http"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/ratelimit"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/handler"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

// WebhookPath receives payment events. It is served without a session,
// so CSRF checks do not apply.
const WebhookPath = "/payment/webhook"

// Handlers groups the page handlers of the site
type Handlers struct {
	Base     handler.BaseHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Auth     *handler.AuthHandler
	Account  *handler.AccountHandler
	Admin    *handler.AdminHandler
	System   *handler.SystemHandler
}

// SiteConfig holds what the engine needs besides the handlers
type SiteConfig struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Security    middleware.SecurityConfig
	Tracing     middleware.TracingConfig
	Metrics     *telemetry.Metrics // nil disables request metrics
	MetricsPath string             // empty hides the metrics endpoint
	Sessions    middleware.SessionStore
	Users       middleware.UserLoader
	Bundle      *i18n.Bundle
	Views       render.HTMLRender
	AuthLimiter *ratelimit.KeyedLimiter // nil disables the login throttle
}

// NewEngine builds the gin engine serving the whole site
func NewEngine(cfg SiteConfig, h Handlers) *gin.Engine {
	middleware.SetupValidator()
	engine := gin.New()
	engine.HTMLRender = cfg.Views
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		cfg.Logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	onError := h.Base.HandleError

	// Middleware chain:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery and Logger
	// 3. Tracing and metrics
	// 4. Security headers and body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.Tracing(cfg.Tracing), middleware.SpanAttributes())
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	engine.Use(middleware.SecureWithConfig(cfg.Security))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize, onError))

	// Stateless endpoints skip the session machinery
	engine.GET("/healthz", h.System.Health)
	engine.HEAD("/static/*filepath", h.System.Static)
	engine.GET("/static/*filepath", h.System.Static)
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}
	engine.POST(WebhookPath, h.Checkout.Webhook)

	r := NewRouter(engine)
	r.Use(
		middleware.Sessions(cfg.Sessions),
		middleware.Language(cfg.Bundle),
		middleware.CurrentUser(cfg.Users),
		middleware.CSRF(onError),
	)

	requireLogin := middleware.RequireLogin(cfg.Bundle, onError)
	throttle := middleware.RateLimit(cfg.AuthLimiter, cfg.Metrics, onError)

	shop := NewDomainGroup("shop", "")
	shop.GET("/", h.Catalog.Index)
	shop.GET("/product/:id", h.Catalog.Product)
	shop.Form("/checkout", h.Checkout.Form, h.Checkout.Place)
	shop.GET("/payment/success", h.Checkout.PaymentSuccess)
	shop.GET("/payment/cancel", h.Checkout.PaymentCancel)
	r.Register(shop)

	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", h.Cart.View)
	cart.POST("/add/:id", h.Cart.Add)
	cart.POST("/update", h.Cart.Update)
	cart.POST("/clear", h.Cart.Clear)
	cart.Group("cart-api", "/api").
		Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins)).
		OPTIONS("/update", preflight).
		POST("/update", h.Cart.APIUpdate)
	r.Register(cart)

	auth := NewDomainGroup("auth", "")
	auth.GET("/register", h.Auth.RegisterForm)
	auth.POST("/register", throttle, h.Auth.Register)
	auth.GET("/login", h.Auth.LoginForm)
	auth.POST("/login", throttle, h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/password/forgot", h.Auth.ForgotForm)
	auth.POST("/password/forgot", throttle, h.Auth.Forgot)
	auth.Form("/password/reset/:token", h.Auth.ResetForm, h.Auth.Reset)
	r.Register(auth)

	account := NewDomainGroup("account", "").Use(requireLogin)
	account.GET("/account", h.Account.Orders)
	account.GET("/account/order/:id", h.Account.Order)
	account.Form("/profile", h.Account.ProfileForm, h.Account.Profile)
	account.POST("/confirm/send", h.Auth.SendConfirmation)
	account.GET("/confirm/:token", h.Auth.Confirm)
	r.Register(account)

	admin := NewDomainGroup("admin", "/admin").Use(requireLogin, middleware.RequireAdmin(onError))
	admin.GET("", h.Admin.Dashboard)
	admin.GET("/categories", h.Admin.Categories)
	admin.Form("/categories/new", h.Admin.NewCategory, h.Admin.CreateCategory)
	admin.Form("/categories/:id/edit", h.Admin.EditCategory, h.Admin.UpdateCategory)
	admin.POST("/categories/:id/delete", h.Admin.DeleteCategory)
	admin.GET("/products", h.Admin.Products)
	admin.Form("/products/new", h.Admin.NewProduct, h.Admin.CreateProduct)
	admin.Form("/products/:id/edit", h.Admin.EditProduct, h.Admin.UpdateProduct)
	admin.POST("/products/:id/delete", h.Admin.DeleteProduct)
	admin.GET("/orders", h.Admin.Orders)
	admin.POST("/orders/:id/status", h.Admin.OrderStatus)
	r.Register(admin)

	r.Setup()

	engine.NoRoute(middleware.Sessions(cfg.Sessions), middleware.Language(cfg.Bundle), middleware.CurrentUser(cfg.Users),
		func(c *gin.Context) { onError(c, shared.ErrNotFound) })
	return engine
}

// preflight answers CORS preflight requests the CORS middleware let through
func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
