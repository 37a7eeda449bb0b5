package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/inventory-system/inventory-web/internal/api/handler"
	"github.com/inventory-system/inventory-web/internal/api/middleware"
	"github.com/inventory-system/inventory-web/internal/api/web"
	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
	"github.com/inventory-system/inventory-web/internal/core/service"

	_ "github.com/inventory-system/inventory-web/docs"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Registry *service.SessionRegistry
	Products handler.GatewayFactory
	Guard    ports.SubmissionGuard
	Checks   map[string]handler.Check
	Logger   zerolog.Logger
}

// Options toggles the outer surfaces of the router.
type Options struct {
	Session middleware.SessionOptions
	CSRF    bool
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = web.MustRenderer()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "inventory_web",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, err
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(promMW)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "same-origin",
	}))

	// --- Probes, metrics and docs (no session) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewHealthDependenciesHandler(deps.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Browser routes ---
	app := e.Group("", middleware.Attach(deps.Registry, opts.Session))
	if opts.CSRF {
		app.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
			TokenLookup:    "form:_csrf",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   opts.Session.Secure,
			CookieSameSite: http.SameSiteLaxMode,
			Skipper: func(c echo.Context) bool {
				return c.Request().Method == http.MethodGet && c.Path() == "/api/session"
			},
		}))
	}

	authHandler := handler.NewAuthHandler(deps.Logger)
	productHandler := handler.NewProductHandler(deps.Products, deps.Guard, deps.Logger)

	app.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/products")
	})
	app.GET("/login", authHandler.ShowLogin, middleware.GuestOnly())
	app.POST("/login", authHandler.Login, middleware.GuestOnly())
	app.POST("/logout", authHandler.Logout)

	products := app.Group("/products", middleware.Guard())
	products.GET("", productHandler.List, middleware.RequireCapability(domain.ActionViewProducts))
	products.GET("/new", productHandler.New, middleware.RequireCapability(domain.ActionCreateProduct))
	products.POST("", productHandler.Create, middleware.RequireCapability(domain.ActionCreateProduct))
	products.GET("/:id/edit", productHandler.Edit, middleware.RequireCapability(domain.ActionUpdateProduct))
	products.POST("/:id", productHandler.Update, middleware.RequireCapability(domain.ActionUpdateProduct))
	products.POST("/:id/delete", productHandler.Delete, middleware.RequireCapability(domain.ActionDeleteProduct))

	app.GET("/api/session", handler.NewSessionHandler().Show)

	return e, nil
}
