package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// NormalizeMethod upper-cases the request method so "get" and "Get" route
// like GET. It must be registered with Echo#Pre: routing happens after it.
//
// The request is changed in place; Echo routes on the original
// *http.Request, not on c.Request() after SetRequest.
func NormalizeMethod() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.Method = strings.ToUpper(req.Method)
			return next(c)
		}
	}
}
