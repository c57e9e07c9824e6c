package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/flash"
)

// RequireAdmin returns a middleware that lets only administrators through.
// It assumes RequireSession has already stored the user on the context.
// Other users are sent back to the turf list with a flash message.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return flash.Redirect(c, LoginPath, flash.Warning, "Please log in to access this page.")
			}
			if !u.IsAdmin {
				return flash.Redirect(c, "/", flash.Error, "You do not have permission to access this page.")
			}
			return next(c)
		}
	}
}
