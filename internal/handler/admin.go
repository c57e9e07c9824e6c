package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/turf-booking/internal/flash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/report"
	"github.com/iliyamo/turf-booking/internal/service"
)

// AdminService is what the admin pages need from the service layer.
type AdminService interface {
	Overview(ctx context.Context) (service.AdminOverview, error)
	AddTurf(ctx context.Context, in service.TurfInput) (model.Turf, error)
	RemoveTurf(ctx context.Context, id uint64) error
	ReportRows(ctx context.Context) ([]model.ReportRow, error)
}

// AdminHandler serves the administrator dashboard, turf management and
// the booking reports.
type AdminHandler struct {
	svc AdminService
	log zerolog.Logger
}

// NewAdminHandler returns an AdminHandler.
func NewAdminHandler(svc AdminService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

// addTurfReq takes the hourly price as price, as the admin form posts it,
// or as price_per_hour.
type addTurfReq struct {
	Name         string `form:"name" json:"name"`
	Location     string `form:"location" json:"location"`
	Description  string `form:"description" json:"description"`
	Price        string `form:"price" json:"price"`
	PricePerHour string `form:"price_per_hour" json:"price_per_hour"`
	ImageURL     string `form:"image_url" json:"image_url"`
}

func (r addTurfReq) price() string {
	if strings.TrimSpace(r.Price) != "" {
		return r.Price
	}
	return r.PricePerHour
}

// Dashboard shows recent bookings and every turf.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	ov, err := h.svc.Overview(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("admin overview failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
	}
	return page(c, "admin_dashboard", echo.Map{"bookings": ov.Bookings, "turfs": ov.Turfs})
}

// AddTurf creates a turf from the admin form.
func (h *AdminHandler) AddTurf(c echo.Context) error {
	var req addTurfReq
	if err := c.Bind(&req); err != nil {
		return flash.Redirect(c, "/admin", flash.Error, "Invalid turf form.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.svc.AddTurf(ctx, service.TurfInput{
		Name:         req.Name,
		Location:     req.Location,
		Description:  req.Description,
		PricePerHour: req.price(),
		ImageURL:     req.ImageURL,
	})
	if errors.Is(err, service.ErrValidation) {
		return flash.Redirect(c, "/admin", flash.Error, err.Error())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("add turf failed")
		return flash.Redirect(c, "/admin", flash.Error, genericError)
	}
	return flash.Redirect(c, "/admin", flash.Success, fmt.Sprintf("Turf %q added successfully.", t.Name))
}

// RemoveTurf deletes a turf together with its bookings.
func (h *AdminHandler) RemoveTurf(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return flash.Redirect(c, "/admin", flash.Error, "Turf not found.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.svc.RemoveTurf(ctx, id)
	switch {
	case err == nil:
		return flash.Redirect(c, "/admin", flash.Success, "Turf and all its associated bookings have been removed.")
	case errors.Is(err, service.ErrTurfNotFound):
		return flash.Redirect(c, "/admin", flash.Error, "Turf not found.")
	default:
		h.log.Error().Err(err).Uint64("turf_id", id).Msg("remove turf failed")
		return flash.Redirect(c, "/admin", flash.Error, genericError)
	}
}

// ReportPDF downloads the booking report as PDF.
func (h *AdminHandler) ReportPDF(c echo.Context) error {
	return h.report(c, report.PDFFilename, report.PDFContentType, report.WritePDF)
}

// ReportExcel downloads the booking report as XLSX.
func (h *AdminHandler) ReportExcel(c echo.Context) error {
	return h.report(c, report.ExcelFilename, report.ExcelContentType, report.WriteExcel)
}

func (h *AdminHandler) report(c echo.Context, filename, contentType string, write func(io.Writer, []model.ReportRow) error) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	rows, err := h.svc.ReportRows(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("report query failed")
		return flash.Redirect(c, "/admin", flash.Error, genericError)
	}
	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		h.log.Error().Err(err).Str("file", filename).Msg("report render failed")
		return flash.Redirect(c, "/admin", flash.Error, genericError)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment;filename="+filename)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
