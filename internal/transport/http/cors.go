package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, GET, OPTIONS, PUT, DELETE, PATCH"
	corsMaxAge       = "86400"
)

// CORS sets permissive CORS headers on every response and answers every
// preflight with 200.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			if c.Request().Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlMaxAge, corsMaxAge)
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
