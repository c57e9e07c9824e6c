package middleware

// identity.go holds the helpers that store and read the authenticated user
// on the Echo context.  Handlers receive the user explicitly through
// CurrentUser and pass it on to every service call.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/model"
)

const userContextKey = "user"

// SetUser attaches the authenticated user to the request context.
func SetUser(c echo.Context, u model.User) { c.Set(userContextKey, u) }

// CurrentUser returns the user attached by RequireSession.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}

// userID returns the authenticated user id as a string, or "guest".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != 0 {
		return strconv.FormatUint(u.ID, 10)
	}
	return "guest"
}
