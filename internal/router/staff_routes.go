package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iftf/duoverkoop/internal/handler"
	"github.com/iftf/duoverkoop/internal/middleware"
)

// RegisterStaff registers the staff endpoints under /v1.  Every route
// requires a valid JWT and the capability named next to it.  Writes purge
// the catalog response cache because they change ticket counts.
func RegisterStaff(e *echo.Echo, d Deps, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret, d.Store))
	purge := middleware.PurgeOnWrite(d.Cache, d.Redis, d.Log)

	create := middleware.RequireCapability(middleware.CanCreate)
	view := middleware.RequireCapability(middleware.CanView)
	edit := middleware.RequireCapability(middleware.CanEdit)
	export := middleware.RequireCapability(middleware.CanExport)

	// ---- Purchases ----
	p := handler.NewPurchaseHandler(d.Purchases, d.Audit)
	g.POST("/purchases", p.Create, create, purge)
	g.GET("/purchases", p.List, view)
	g.GET("/purchases/:id", p.Get, view)
	g.GET("/purchases/:id/audit", p.History, view)
	g.PUT("/purchases/:id", p.Update, edit, purge)
	g.DELETE("/purchases/:id", p.Delete, edit, purge)

	// ---- Verification ----
	v := handler.NewVerifyHandler(d.Verify)
	g.GET("/verify", v.Lookup, view, limit)
	g.GET("/codes/stats", v.CodeStats, view)

	// ---- Export ----
	x := handler.NewExportHandler(d.Exporter)
	g.GET("/export", x.CSV, export)

	// ---- Catalog management ----
	c := handler.NewCatalogHandler(d.Catalog)
	g.POST("/associations", c.CreateAssociation, edit, purge)
	g.POST("/performances", c.CreatePerformance, edit, purge)
	g.DELETE("/performances/:key", c.DeletePerformance, edit, purge)
}
