package router

import (
	"github.com/labstack/echo/v4"

	"github.com/unitrade/campus-market/internal/handler"
	"github.com/unitrade/campus-market/internal/middleware"
)

// RegisterProducts registers the authenticated product endpoints under
// /v1.  All routes require a valid JWT.  Owners publish, edit and sell
// their listings here; any authenticated user can record views,
// toggle favorites, comment and evaluate sellers.
func RegisterProducts(e *echo.Echo, p *handler.ProductHandler, a *handler.ActionsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
	)
	// Note: GET /v1/products, GET /v1/products/:id and the image route
	// are registered on the public router so that guests can browse.
	// Authenticated operations begin here.
	g.POST("/products", p.Create)
	g.PUT("/products/:id", p.Update)
	g.POST("/products/:id", p.Update) // form-post alternative for clients without PUT

	// Lifecycle transitions and bookkeeping.  The status route and the
	// sell route have the same effect; both exist for client
	// compatibility.
	g.PUT("/products/:id/status", a.Sell)
	g.POST("/products/:id/sell", a.Sell)
	g.PUT("/products/:id/view", a.View)
	g.POST("/products/:id/favorite", a.Favorite)
	g.POST("/products/:id/comments", a.Comment)
	g.POST("/products/:id/evaluate", a.Evaluate)
}
