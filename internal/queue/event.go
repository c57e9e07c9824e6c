// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Queue names.  Each event type has its own durable queue.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// Event types carried in BookingEvent.Type.
const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent is published when a booking is confirmed or cancelled.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingEvent struct {
	MessageID      string `json:"message_id"`
	Type           string `json:"type"`
	BookingID      uint64 `json:"booking_id"`
	UserID         uint64 `json:"user_id"`
	TurfID         uint64 `json:"turf_id"`
	TurfName       string `json:"turf_name"`
	BookingTime    string `json:"booking_time"`
	AmountPaid     string `json:"amount_paid"`
	PointsRedeemed int    `json:"points_redeemed"`
	LoyaltyBalance int    `json:"loyalty_balance"`
	OccurredAt     string `json:"occurred_at"`
}

// NewBookingEvent stamps a fresh message id and the current time.
func NewBookingEvent(eventType string) BookingEvent {
	return BookingEvent{
		MessageID:  uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// QueueFor returns the queue an event type is routed to, or "" when the
// type is unknown.
func QueueFor(eventType string) string {
	switch eventType {
	case EventBookingConfirmed:
		return QueueBookingConfirmed
	case EventBookingCancelled:
		return QueueBookingCancelled
	}
	return ""
}
