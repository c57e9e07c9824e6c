package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/handler"
	"github.com/iliyamo/turf-booking/internal/middleware"
)

// RegisterAdmin registers the administrator pages under /admin.  All
// routes require a session and the administrator flag.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, session, limit echo.MiddlewareFunc) {
	g := e.Group("/admin", session, middleware.RequireAdmin(), limit)

	g.GET("", h.Dashboard)

	// ---- Turfs ----
	g.POST("/turf/add", h.AddTurf)
	g.POST("/turf/remove/:id", h.RemoveTurf)

	// ---- Reports ----
	g.GET("/report/pdf", h.ReportPDF)
	g.GET("/report/excel", h.ReportExcel)
}
