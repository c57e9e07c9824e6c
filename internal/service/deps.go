package service

import (
	"context"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/queue"
)

// TxManager runs fn inside one database transaction.  The transaction
// travels in the context, so repositories called with that context join
// it.  *manager.Manager from go-transaction-manager satisfies it.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore is the subset of the user repository the services need.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, isAdmin bool, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (model.User, error)
	SetLoyaltyPoints(ctx context.Context, id uint64, points int) error
	PromoteToAdmin(ctx context.Context, id uint64) error
}

// SessionStore persists hashed session identifiers.
type SessionStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// TurfStore is the subset of the turf repository the services need.
type TurfStore interface {
	Create(ctx context.Context, t *model.Turf) error
	GetByID(ctx context.Context, id uint64) (model.Turf, error)
	List(ctx context.Context) ([]model.Turf, error)
	ListByName(ctx context.Context) ([]model.Turf, error)
	Delete(ctx context.Context, id uint64) error
}

// BookingStore is the subset of the booking repository the services need.
type BookingStore interface {
	IsSlotAvailable(ctx context.Context, turfID uint64, at time.Time) (bool, error)
	BookedSlots(ctx context.Context, turfID uint64, from, to time.Time) ([]time.Time, error)
	Create(ctx context.Context, b *model.Booking) error
	GetByIDForUpdate(ctx context.Context, id uint64) (model.Booking, error)
	SetStatus(ctx context.Context, id uint64, status string) error
	DeleteByTurf(ctx context.Context, turfID uint64) (int64, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.UserBooking, error)
	ReportRows(ctx context.Context, limit int) ([]model.ReportRow, error)
}

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// CacheInvalidator drops cached turf listings after the catalogue changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
