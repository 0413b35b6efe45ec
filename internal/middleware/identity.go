package middleware

// identity.go provides the caller identifier shared by the cache and rate
// limit middleware.  The identifier is the JWT subject stored by JWTAuth,
// or "guest" for unauthenticated requests.

import (
	"github.com/labstack/echo/v4"
)

// callerID extracts the operator identifier from the request context.
func callerID(c echo.Context) string {
	if v, ok := c.Get("operator").(string); ok && v != "" {
		return v
	}
	return "guest"
}
