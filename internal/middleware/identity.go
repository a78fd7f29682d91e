package middleware

// identity.go holds the helper shared by the cache and rate-limit key
// builders. It reads the user_id value JWTAuth stored in the Echo
// context and renders it as a key segment; anonymous requests scope
// to "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user's id for cache and
// rate-limit keys. JWT numeric claims arrive as float64; requests
// that never passed JWTAuth carry no value at all.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return "anon"
}
