package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/ratelimit"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/visitor"
)

const (
	loginRoute    = "/api/auth/login"
	registerRoute = "/api/auth/register"
)

type Deps struct {
	Store    storage.Scoper
	Visitors *visitor.Issuer
	Auth     session.AuthService
	API      *apiclient.Client

	// Search serves product search. When nil the gateway's search is used.
	Search  catalog.Searcher
	Events  events.Publisher
	Limiter *ratelimit.Limiter

	CSRF   csrf.Config
	Logger *slog.Logger
}

func Register(e *echo.Echo, d *Deps) {
	h := &handler{
		store:   d.Store,
		auth:    d.Auth,
		api:     d.API,
		search:  d.Search,
		events:  d.Events,
		limiter: d.Limiter,
	}
	if h.events == nil {
		h.events = events.Noop{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger, func(c echo.Context) []any {
		if id := visitor.ID(c); id != "" {
			return []any{"visitor_id", id}
		}
		return nil
	}))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	cfg := d.CSRF
	cfg.SkipPaths = append([]string{loginRoute, registerRoute}, d.CSRF.SkipPaths...)
	cfg.SkipPrefixes = append([]string{"/health/"}, d.CSRF.SkipPrefixes...)

	chain := []echo.MiddlewareFunc{d.Visitors.Middleware(), csrf.Middleware(cfg), h.withStorefront}

	e.GET("/checkout", h.checkoutPage, chain...)

	api := e.Group("/api", chain...)

	api.GET("/session", h.getSession)
	api.POST("/auth/login", h.login)
	api.POST("/auth/register", h.register)
	api.POST("/auth/logout", h.logout)

	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)

	cart := api.Group("/cart")

	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addToCart)
	cart.PUT("/items/:id", h.updateCartItem)
	cart.DELETE("/items/:id", h.removeCartItem)

	products := api.Group("/products")

	products.GET("", h.listProducts)
	products.GET("/categories", h.categories)
	products.GET("/search", h.searchProducts)
	products.GET("/:id", h.getProduct)

	api.POST("/checkout/orders", h.placeOrder)
	api.GET("/orders", h.listOrders)
}
