package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/turf-booking/internal/flash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/service"
)

// BookingService is what the user-facing pages need from the service layer.
type BookingService interface {
	ListTurfs(ctx context.Context) ([]model.Turf, error)
	SlotGrid(ctx context.Context, turfID uint64) (service.SlotGrid, error)
	CheckAvailability(ctx context.Context, turfID uint64, date, clock string) (bool, error)
	Quote(ctx context.Context, user model.User, req service.SlotRequest, redeem bool) (service.Quote, error)
	Commit(ctx context.Context, user model.User, req service.SlotRequest, hints service.CommitHints) (service.Confirmation, error)
	Cancel(ctx context.Context, user model.User, bookingID uint64) (model.Booking, error)
	Dashboard(ctx context.Context, user model.User) (service.Dashboard, error)
}

// BookingHandler serves the turf list, slot grid, booking workflow and the
// user dashboard.  Every route sits behind the session middleware.
type BookingHandler struct {
	svc BookingService
	log zerolog.Logger
}

// NewBookingHandler returns a BookingHandler.
func NewBookingHandler(svc BookingService, log zerolog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// ----- DTOs -----

type slotReq struct {
	TurfID uint64 `form:"turf_id" query:"turf_id" json:"turf_id"`
	Date   string `form:"date" query:"date" json:"date"`
	Time   string `form:"time" query:"time" json:"time"`
}

type confirmReq struct {
	TurfID       uint64 `form:"turf_id" json:"turf_id"`
	Date         string `form:"date" json:"date"`
	Time         string `form:"time" json:"time"`
	RedeemPoints string `form:"redeem_points" json:"redeem_points"`
}

// executeReq accepts the redeemed points as points_redeemed, the name the
// booking form posts, or as points_to_redeem, the name the quote page uses.
type executeReq struct {
	TurfID         uint64 `form:"turf_id" json:"turf_id"`
	Date           string `form:"date" json:"date"`
	Time           string `form:"time" json:"time"`
	FinalAmount    string `form:"final_amount" json:"final_amount"`
	PointsRedeemed string `form:"points_redeemed" json:"points_redeemed"`
	PointsToRedeem string `form:"points_to_redeem" json:"points_to_redeem"`
}

func (r executeReq) points() string {
	if v := strings.TrimSpace(r.PointsRedeemed); v != "" {
		return v
	}
	return strings.TrimSpace(r.PointsToRedeem)
}

func slotRequest(turfID uint64, date, clock string) service.SlotRequest {
	return service.SlotRequest{TurfID: turfID, Date: strings.TrimSpace(date), Time: strings.TrimSpace(clock)}
}

// checkbox interprets an HTML checkbox value.
func checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Index lists every turf.
func (h *BookingHandler) Index(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	turfs, err := h.svc.ListTurfs(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("list turfs failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load turfs"})
	}
	return page(c, "index", echo.Map{"turfs": turfs})
}

// TurfDetail shows the slot grid for one turf.
func (h *BookingHandler) TurfDetail(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return flash.Redirect(c, "/", flash.Error, "Selected turf not found.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	grid, err := h.svc.SlotGrid(ctx, id)
	if errors.Is(err, service.ErrTurfNotFound) {
		return flash.Redirect(c, "/", flash.Error, "Selected turf not found.")
	}
	if err != nil {
		h.log.Error().Err(err).Uint64("turf_id", id).Msg("slot grid failed")
		return flash.Redirect(c, "/", flash.Error, genericError)
	}
	return page(c, "turf_details", echo.Map{
		"turf":       grid.Turf,
		"dates":      grid.Dates,
		"time_slots": grid.Times,
		"booked":     grid.Booked,
	})
}

// CheckAvailability answers {"available": bool} for one slot.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	var req slotReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid query"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ok, err := h.svc.CheckAvailability(ctx, req.TurfID, strings.TrimSpace(req.Date), strings.TrimSpace(req.Time))
	if errors.Is(err, service.ErrValidation) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err != nil {
		h.log.Error().Err(err).Msg("check availability failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": ok})
}

// Confirm prices the chosen slot and renders the payment confirmation.
func (h *BookingHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return flash.Redirect(c, backTo(c, "/"), flash.Error, "Missing booking information. Please select a date and time.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	q, err := h.svc.Quote(ctx, currentUser(c), slotRequest(req.TurfID, req.Date, req.Time), checkbox(req.RedeemPoints))
	switch {
	case errors.Is(err, service.ErrValidation):
		return flash.Redirect(c, backTo(c, "/"), flash.Error, err.Error())
	case errors.Is(err, service.ErrTurfNotFound):
		return flash.Redirect(c, "/", flash.Error, "Selected turf not found.")
	case err != nil:
		h.log.Error().Err(err).Msg("quote failed")
		return flash.Redirect(c, "/", flash.Error, genericError)
	}
	return page(c, "payment_confirmation", echo.Map{
		"turf": q.Turf,
		"booking_details": echo.Map{
			"date":             q.Date,
			"time":             q.Time,
			"base_amount":      q.Base,
			"discount":         q.Discount,
			"final_amount":     q.Final,
			"points_to_redeem": q.PointsToRedeem,
		},
		"loyalty_points": q.LoyaltyPoints,
	})
}

// Execute commits the booking.  The submitted amount and points are only
// hints; the service re-derives both.
func (h *BookingHandler) Execute(c echo.Context) error {
	var req executeReq
	if err := c.Bind(&req); err != nil {
		return flash.Redirect(c, "/", flash.Error, "Missing booking information. Please select a date and time.")
	}
	hints := service.CommitHints{}
	if d, err := decimal.NewFromString(strings.TrimSpace(req.FinalAmount)); err == nil {
		hints.AmountPaid = d
	}
	if n, err := strconv.Atoi(req.points()); err == nil {
		hints.PointsRedeemed = n
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	conf, err := h.svc.Commit(ctx, currentUser(c), slotRequest(req.TurfID, req.Date, req.Time), hints)
	switch {
	case errors.Is(err, service.ErrSlotTaken):
		return flash.Redirect(c, fmt.Sprintf("/turf/%d", req.TurfID), flash.Error,
			"Sorry, this slot was just booked by another user. Please select a different time.")
	case errors.Is(err, service.ErrQuoteChanged):
		return flash.Redirect(c, fmt.Sprintf("/turf/%d", req.TurfID), flash.Warning,
			"The price of this booking has changed. Please review it and confirm again.")
	case errors.Is(err, service.ErrValidation):
		return flash.Redirect(c, "/", flash.Error, err.Error())
	case errors.Is(err, service.ErrTurfNotFound):
		return flash.Redirect(c, "/", flash.Error, "Selected turf not found.")
	case err != nil:
		h.log.Error().Err(err).Msg("commit booking failed")
		return flash.Redirect(c, "/", flash.Error, genericError)
	}
	return page(c, "booking_confirmation", echo.Map{
		"flash":          flash.Message{Category: flash.Success, Text: "Booking successful! You have earned 10 loyalty points."},
		"booking":        conf.Booking,
		"turf":           conf.Turf,
		"date":           conf.Date,
		"time":           conf.Time,
		"amount":         conf.Booking.AmountPaid,
		"discount":       conf.Discount,
		"loyalty_points": conf.LoyaltyPoints,
	})
}

// Dashboard lists the user's bookings and loyalty balance.
func (h *BookingHandler) Dashboard(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	d, err := h.svc.Dashboard(ctx, currentUser(c))
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard failed")
		return flash.Redirect(c, "/", flash.Error, genericError)
	}
	return page(c, "dashboard", echo.Map{
		"user":     toUserPart(d.User, true),
		"bookings": d.Bookings,
	})
}

// Cancel cancels one of the user's bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return flash.Redirect(c, "/dashboard", flash.Error, "Booking not found or you do not have permission to cancel it.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.svc.Cancel(ctx, currentUser(c), id)
	switch {
	case err == nil:
		return flash.Redirect(c, "/dashboard", flash.Success, "Booking has been cancelled.")
	case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrForbidden):
		return flash.Redirect(c, "/dashboard", flash.Error, "Booking not found or you do not have permission to cancel it.")
	case errors.Is(err, service.ErrAlreadyCancelled):
		return flash.Redirect(c, "/dashboard", flash.Info, "This booking has already been cancelled.")
	default:
		h.log.Error().Err(err).Uint64("booking_id", id).Msg("cancel booking failed")
		return flash.Redirect(c, "/dashboard", flash.Error, genericError)
	}
}
