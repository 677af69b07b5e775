package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireCEO restricts a route to tokens carrying the CEO flag. The check
// runs against the actual identity in the token, never an impersonation
// overlay.
func RequireCEO() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isCEO, _ := c.Get("is_ceo").(bool)
			if !isCEO {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
