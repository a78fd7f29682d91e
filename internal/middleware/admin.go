package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireAdmin returns a middleware function that enforces that the
// authenticated user carries the admin flag.  It assumes a previous
// middleware (JWTAuth) has extracted the "adm" claim into the context
// under the key "is_admin".  Requests from non-admin users are
// aborted with a 403 Forbidden response.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // The claim arrives as a JSON boolean; anything else (missing
            // value, wrong type) is treated as not-admin.
            v := c.Get("is_admin")
            isAdmin, ok := v.(bool)
            if !ok || !isAdmin {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
