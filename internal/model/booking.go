package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking statuses.  A booking is created Confirmed and may move to
// Cancelled exactly once.
const (
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// SlotLayout is the storage and wire format of a slot start time
// (calendar date + hour of day).
const SlotLayout = "2006-01-02 15:04"

// Booking links one user and one turf to a one-hour slot.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who booked the slot.
//  TurfID         – turf being booked.
//  BookingTime    – slot start (UTC, minute precision).
//  AmountPaid     – amount charged after any loyalty discount.
//  PointsRedeemed – loyalty points spent on this booking (0 or 50).
//  Status         – Confirmed or Cancelled.
//  CreatedAt      – creation timestamp.
type Booking struct {
	ID             uint64          `json:"id"`
	UserID         uint64          `json:"user_id"`
	TurfID         uint64          `json:"turf_id"`
	BookingTime    time.Time       `json:"booking_time"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PointsRedeemed int             `json:"points_redeemed"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsConfirmed reports whether the booking currently holds its slot.
func (b Booking) IsConfirmed() bool { return b.Status == StatusConfirmed }

// UserBooking is a row of a user's dashboard: the booking joined with the
// turf it belongs to.
type UserBooking struct {
	ID           uint64          `json:"id"`
	TurfName     string          `json:"turf_name"`
	TurfLocation string          `json:"turf_location"`
	BookingTime  time.Time       `json:"booking_time"`
	Status       string          `json:"status"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
}

// ReportRow is one line of the administrator booking report: bookings
// joined with the booking user and the turf.
type ReportRow struct {
	BookingID   uint64          `json:"booking_id"`
	Username    string          `json:"username"`
	TurfName    string          `json:"turf_name"`
	BookingTime time.Time       `json:"booking_time"`
	Status      string          `json:"status"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
}
