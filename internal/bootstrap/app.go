// Package bootstrap wires configuration, infrastructure, services and the
// HTTP engine into a runnable application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	cartapp "github.com/EthanMadison/hack-yourself.shop/internal/application/cart"
	catalogapp "github.com/EthanMadison/hack-yourself.shop/internal/application/catalog"
	checkoutapp "github.com/EthanMadison/hack-yourself.shop/internal/application/checkout"
	identityapp "github.com/EthanMadison/hack-yourself.shop/internal/application/identity"
	orderapp "github.com/EthanMadison/hack-yourself.shop/internal/application/order"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/auth"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/cache"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/i18n"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/mail"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/markup"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/payment"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/persistence"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/ratelimit"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/session"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/storage"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/handler"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/middleware"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/router"
	"github.com/EthanMadison/hack-yourself.shop/internal/interfaces/http/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App is the assembled application
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Stores  *cache.Stores
	Metrics *telemetry.Metrics
	Tracer  *telemetry.TracerProvider

	Categories *catalogapp.CategoryService
	Products   *catalogapp.ProductService
	Seeder     *catalogapp.Seeder
	Auth       *identityapp.AuthService
	Orders     *orderapp.Service
	Checkout   *checkoutapp.Service
}

// Option adjusts how New assembles the app
type Option func(*options)

type options struct {
	gateway checkoutapp.PaymentGateway
	stores  *cache.Stores
}

// WithPaymentGateway replaces the gateway built from the Stripe settings
func WithPaymentGateway(g checkoutapp.PaymentGateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithStores uses the given session and idempotency stores instead of
// building them from the Redis settings
func WithStores(s *cache.Stores) Option {
	return func(o *options) { o.stores = s }
}

// New connects to the database and the stores and builds the services.
// Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: log, Metrics: telemetry.NewMetrics("shop")}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, err
	}
	app.Tracer = tracer

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.DB = db

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.DBSystem = cfg.Database.Driver
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("register db tracing: %w", err)
	}

	// sqlite has no migration set; postgres runs cmd/migrate unless told otherwise
	if cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "" || cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
	}

	app.Stores = o.stores
	if app.Stores == nil {
		stores, err := cache.NewFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.App.IsProduction()),
		).Create()
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		app.Stores = stores
	}

	images, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	gateway := o.gateway
	if gateway == nil && cfg.Stripe.Enabled() {
		stripe, err := payment.NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		gateway = stripe
	}

	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	tokens := auth.NewTokenService(cfg.App.SecretKey, cfg.Tokens)
	usedTokens := auth.NewUsedTokens(app.Stores.Idempotency)

	app.Categories = catalogapp.NewCategoryService(categoryRepo, log)
	app.Products = catalogapp.NewProductService(productRepo, categoryRepo, orderRepo, images, markup.NewRenderer(), log)
	app.Seeder = catalogapp.NewSeeder(categoryRepo, productRepo, nil, log)
	app.Orders = orderapp.NewService(orderRepo, log)
	app.Auth = identityapp.NewAuthService(userRepo, tokens, usedTokens, mail.NewLogMailer(log), images,
		app.Metrics, identityapp.AuthServiceConfig{BaseURL: cfg.App.BaseURL}, log)
	app.Checkout = checkoutapp.NewService(productRepo, orderRepo, gateway, app.Stores.Idempotency,
		app.Metrics, checkoutapp.Config{BaseURL: cfg.App.BaseURL}, log)

	log.Info("Application assembled",
		zap.String("database", cfg.Database.Driver),
		zap.String("stores", app.Stores.Backend),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("payments", gateway != nil))
	return app, nil
}

// Engine builds the HTTP engine serving the site
func (a *App) Engine() (*gin.Engine, error) {
	cfg := a.Config

	bundle, err := i18n.Load(cfg.I18n.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	views, err := view.New()
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(a.Stores.Sessions, cfg.Session, cfg.App.SecretKey, a.Logger)
	if err != nil {
		return nil, err
	}

	uploadDir := ""
	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		uploadDir = cfg.Storage.LocalDir
	}

	base := handler.NewBaseHandler(bundle)
	carts := cartapp.NewService(persistence.NewGormProductRepository(a.DB.DB), a.Logger)
	handlers := router.Handlers{
		Base:     base,
		Catalog:  handler.NewCatalogHandler(base, a.Products),
		Cart:     handler.NewCartHandler(base, carts),
		Checkout: handler.NewCheckoutHandler(base, a.Checkout, carts),
		Auth:     handler.NewAuthHandler(base, a.Auth),
		Account:  handler.NewAccountHandler(base, a.Orders, a.Auth),
		Admin:    handler.NewAdminHandler(base, a.Categories, a.Products, a.Orders),
		System:   handler.NewSystemHandler(a.DB, view.Static(), uploadDir),
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.IsProduction()

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	var limiter *ratelimit.KeyedLimiter
	if cfg.HTTP.AuthRateLimitRPS > 0 {
		limiter = ratelimit.New(cfg.HTTP.AuthRateLimitRPS, cfg.HTTP.AuthRateBurst, 10*time.Minute)
	}

	return router.NewEngine(router.SiteConfig{
		Logger:   a.Logger,
		HTTP:     cfg.HTTP,
		Security: security,
		Tracing: middleware.TracingConfig{
			ServiceName:  cfg.Telemetry.ServiceName,
			Enabled:      cfg.Telemetry.Enabled,
			SkipPrefixes: []string{"/static/", "/healthz", cfg.Metrics.Path},
		},
		Metrics:     a.Metrics,
		MetricsPath: metricsPath,
		Sessions:    sessions,
		Users:       a.Auth,
		Bundle:      bundle,
		Views:       views,
		AuthLimiter: limiter,
	}, handlers), nil
}

// Close releases the stores, the database and the tracer
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Stores != nil {
		errs = append(errs, a.Stores.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Tracer != nil {
		errs = append(errs, a.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
