package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the registration, login and logout pages.  None
// of them needs an existing session; logout simply clears whatever
// session the request carries.  limit guards the form submissions.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	e.GET("/register", a.RegisterPage)
	e.POST("/register", a.Register, limit)
	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login, limit)
	e.GET("/logout", a.Logout)
}
