package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/handler"
)

// RegisterUser registers the pages of a logged-in user.  session must
// resolve the session cookie and runs before limit; cache wraps the turf
// list only.
func RegisterUser(e *echo.Echo, h *handler.BookingHandler, session, limit, cache echo.MiddlewareFunc) {
	g := e.Group("", session, limit)

	g.GET("/", h.Index, cache)
	g.GET("/turf/:id", h.TurfDetail)
	g.GET("/check_availability", h.CheckAvailability)

	// two-phase booking: quote then commit
	g.POST("/book/confirm", h.Confirm)
	g.POST("/book/execute", h.Execute)

	g.GET("/dashboard", h.Dashboard)
	g.POST("/cancel_booking/:id", h.Cancel)
}
