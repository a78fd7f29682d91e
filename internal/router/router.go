package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/unitrade/campus-market/internal/handler"    // import the handlers that implement business logic
	"github.com/unitrade/campus-market/internal/middleware" // import middleware for JWT authentication and admin enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The health endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Register, login, refresh and logout do not require an existing
	// session; each handler is responsible for generating or exchanging
	// tokens on its own.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body containing a `refresh_token` and
	// invalidates that token; it does not require JWT authentication.
	g.POST("/logout", a.Logout)

	// Protected endpoints live under /v1 and run the JWTAuth middleware
	// before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: the
// selling-products feed, listing details and raw image bytes.  These
// routes apply no JWT middleware so guests can browse freely; the
// optional extra middleware slot is where main wires the Redis
// response cache.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, p *handler.ProductHandler, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1", extra...)
	g.GET("/products", b.List)
	g.GET("/products/:id", p.Detail)
	g.GET("/products/:id/image", p.Image)
}
