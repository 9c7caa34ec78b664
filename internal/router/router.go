package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/handler"
	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/middleware"
	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store"
)

// Deps is everything the HTTP surface needs.  Redis and Metrics may be nil.
type Deps struct {
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Store     store.Store
	Redis     *redis.Client
	Metrics   *metrics.Metrics
	Log       *zap.Logger

	Purchases *service.PurchaseService
	Audit     *service.AuditLog
	Catalog   *service.CatalogService
	Verify    *service.VerifyService
	Exporter  *service.Exporter
}

// New builds the echo instance with the shared middleware and every route
// registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)
	e.Use(middleware.RequestLogger(d.Log, d.Metrics))

	RegisterRoutes(e, d.Metrics)
	RegisterPublic(e, handler.NewCatalogHandler(d.Catalog), middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Store, d.Store, d.Log), d.Cfg.JWTSecret, d.Store, limit)
	RegisterStaff(e, d, limit)
	return e
}

// RegisterRoutes registers the probes: /healthz and, when metrics are
// enabled, /metrics.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterPublic registers the unauthenticated catalog endpoints behind the
// response cache.
func RegisterPublic(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/catalog", h.List)
	g.GET("/performances/selectable", h.Selectable)
}

// RegisterAuth registers login and session routes.  Login and refresh live
// under /v1/auth without a session; logout and /v1/me require one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, users store.Users, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret, users))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret, users))
}
