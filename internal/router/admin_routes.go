package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/handler"
	"github.com/unitrade/campus-market/internal/middleware"
)

// RegisterAdmin registers the reporting and data-management routes
// under /v1/admin.  All routes require a valid JWT whose "adm" claim
// is set; RequireAdmin rejects everyone else with 403.
//
// The setadmin bootstrap route is registered outside the admin group:
// it is guarded by a shared secret instead of a JWT so the very first
// admin account can be flagged.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireAdmin(),
	)
	g.GET("/export/users", h.ExportUsers)
	g.GET("/export/products", h.ExportProducts)
	g.GET("/export/orders", h.ExportOrders)
	g.POST("/import/users", h.ImportUsers)
	g.GET("/stats/daily-posts", h.DailyPosts)
	g.GET("/stats/daily-transactions", h.DailyTransactions)
	g.GET("/stats/hot-categories-sales", h.HotCategories)

	e.GET("/v1/setadmin", h.SetAdmin)
}
