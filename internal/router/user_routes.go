package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/handler"
	"github.com/unitrade/campus-market/internal/middleware"
)

// RegisterUserListings registers the per-user collection endpoints
// under /v1/user.  All routes require a valid JWT and only ever
// return data belonging to the authenticated caller.
func RegisterUserListings(e *echo.Echo, h *handler.UserListingsHandler, jwtSecret string) {
	g := e.Group(
		"/v1/user",
		middleware.JWTAuth(jwtSecret),
	)
	g.GET("/favorites", h.Favorites)
	g.GET("/publications", h.Publications)
	g.GET("/orders", h.Orders)
	g.GET("/view-history", h.ViewHistory)
}
