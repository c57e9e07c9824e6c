package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
)

// Quote is the priced, not yet persisted, proposal shown on the
// confirmation page.
type Quote struct {
	Turf          model.Turf `json:"turf"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	LoyaltyPoints int        `json:"loyalty_points"`
	PriceBreakdown
}

// CommitHints are the values the client echoes back from the quote.
// PointsRedeemed > 0 is read as the wish to redeem; the amounts are
// recomputed.  A non-zero AmountPaid must equal the recomputed amount.
type CommitHints struct {
	AmountPaid     decimal.Decimal
	PointsRedeemed int
}

// Confirmation describes a committed booking.
type Confirmation struct {
	Booking       model.Booking   `json:"booking"`
	Turf          model.Turf      `json:"turf"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Discount      decimal.Decimal `json:"discount"`
	LoyaltyPoints int             `json:"loyalty_points"`
}

// Dashboard is the user's own booking history plus balance.
type Dashboard struct {
	User     model.User          `json:"user"`
	Bookings []model.UserBooking `json:"bookings"`
}

// BookingService implements availability checks, quoting, committing and
// cancelling bookings together with the loyalty ledger.
type BookingService struct {
	tx       TxManager
	users    UserStore
	turfs    TurfStore
	bookings BookingStore
	events   EventPublisher
	log      zerolog.Logger
	now      func() time.Time
	loc      *time.Location
}

// NewBookingService wires a BookingService.  events may be nil, in which
// case no booking events are published.
func NewBookingService(tx TxManager, users UserStore, turfs TurfStore, bookings BookingStore, events EventPublisher, log zerolog.Logger) *BookingService {
	return &BookingService{
		tx:       tx,
		users:    users,
		turfs:    turfs,
		bookings: bookings,
		events:   events,
		log:      log.With().Str("component", "booking").Logger(),
		now:      time.Now,
		loc:      time.UTC,
	}
}

// SetLocation sets the zone whose calendar decides which day "today" is
// on the slot grid.  Slot times themselves are wall-clock values.
func (s *BookingService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// ListTurfs returns every turf in insertion order.
func (s *BookingService) ListTurfs(ctx context.Context) ([]model.Turf, error) {
	turfs, err := s.turfs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list turfs: %w", err)
	}
	return turfs, nil
}

// SlotGrid returns the turf with the bookable dates, hourly slots and the
// slots already taken inside that window.
func (s *BookingService) SlotGrid(ctx context.Context, turfID uint64) (SlotGrid, error) {
	turf, err := s.turf(ctx, turfID)
	if err != nil {
		return SlotGrid{}, err
	}
	dates := gridDates(s.now().In(s.loc))
	from, _ := time.ParseInLocation(dateLayout, dates[0], time.UTC)
	to := from.AddDate(0, 0, BookingWindowDays)

	taken, err := s.bookings.BookedSlots(ctx, turfID, from, to)
	if err != nil {
		return SlotGrid{}, fmt.Errorf("booked slots: %w", err)
	}
	booked := make([]string, 0, len(taken))
	for _, at := range taken {
		booked = append(booked, at.UTC().Format(model.SlotLayout))
	}
	return SlotGrid{Turf: turf, Dates: dates, Times: gridTimes(), Booked: booked}, nil
}

// CheckAvailability reports whether no Confirmed booking holds the slot.
// An unknown turf has no bookings and is therefore available.
func (s *BookingService) CheckAvailability(ctx context.Context, turfID uint64, date, clock string) (bool, error) {
	at, err := SlotRequest{TurfID: turfID, Date: date, Time: clock}.Start()
	if err != nil {
		return false, err
	}
	ok, err := s.bookings.IsSlotAvailable(ctx, turfID, at)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return ok, nil
}

// Quote prices the slot for user without persisting anything.
func (s *BookingService) Quote(ctx context.Context, user model.User, req SlotRequest, redeem bool) (Quote, error) {
	if _, err := req.Start(); err != nil {
		return Quote{}, err
	}
	turf, err := s.turf(ctx, req.TurfID)
	if err != nil {
		return Quote{}, err
	}
	// Balance is read fresh; the session copy may be stale.
	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return Quote{}, fmt.Errorf("load user: %w", err)
	}
	return Quote{
		Turf:           turf,
		Date:           req.Date,
		Time:           req.Time,
		LoyaltyPoints:  fresh.LoyaltyPoints,
		PriceBreakdown: PriceSlot(turf.PricePerHour, fresh.LoyaltyPoints, redeem),
	}, nil
}

// Commit books the slot for user.  The balance row is locked, the slot is
// re-checked and the price re-derived inside one transaction; a concurrent
// winner surfaces as ErrSlotTaken.  Deadlocks are retried.
func (s *BookingService) Commit(ctx context.Context, user model.User, req SlotRequest, hints CommitHints) (Confirmation, error) {
	at, err := req.Start()
	if err != nil {
		return Confirmation{}, err
	}

	var out Confirmation
	err = withRetry(ctx, txAttempts, func() error {
		return s.tx.Do(ctx, func(ctx context.Context) error {
			u, err := s.users.GetByIDForUpdate(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			turf, err := s.turf(ctx, req.TurfID)
			if err != nil {
				return err
			}
			free, err := s.bookings.IsSlotAvailable(ctx, turf.ID, at)
			if err != nil {
				return fmt.Errorf("recheck availability: %w", err)
			}
			if !free {
				return ErrSlotTaken
			}

			price := PriceSlot(turf.PricePerHour, u.LoyaltyPoints, hints.PointsRedeemed > 0)
			if hints.PointsRedeemed != price.PointsToRedeem || !hints.AmountPaid.Equal(price.Final) {
				s.log.Warn().
					Uint64("user_id", u.ID).
					Str("hint_amount", hints.AmountPaid.StringFixed(2)).
					Int("hint_points", hints.PointsRedeemed).
					Str("amount", price.Final.StringFixed(2)).
					Int("points", price.PointsToRedeem).
					Msg("client booking values differ from server quote")
				// never charge a different amount than the one confirmed
				if !hints.AmountPaid.IsZero() && !hints.AmountPaid.Equal(price.Final) {
					return ErrQuoteChanged
				}
			}

			b := model.Booking{
				UserID:         u.ID,
				TurfID:         turf.ID,
				BookingTime:    at,
				AmountPaid:     price.Final,
				PointsRedeemed: price.PointsToRedeem,
				Status:         model.StatusConfirmed,
			}
			if err := s.bookings.Create(ctx, &b); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrSlotTaken
				}
				return fmt.Errorf("insert booking: %w", err)
			}
			balance := BalanceAfterCommit(u.LoyaltyPoints, price.PointsToRedeem)
			if err := s.users.SetLoyaltyPoints(ctx, u.ID, balance); err != nil {
				return fmt.Errorf("update loyalty points: %w", err)
			}
			out = Confirmation{
				Booking:       b,
				Turf:          turf,
				Date:          req.Date,
				Time:          req.Time,
				Discount:      price.Discount,
				LoyaltyPoints: balance,
			}
			return nil
		})
	})
	if err != nil {
		return Confirmation{}, err
	}

	s.log.Info().Uint64("booking_id", out.Booking.ID).Uint64("user_id", user.ID).
		Uint64("turf_id", out.Turf.ID).Time("slot", at).Msg("booking confirmed")
	s.publish(ctx, queue.EventBookingConfirmed, out.Booking, out.Turf.Name, out.LoyaltyPoints)
	return out, nil
}

// Cancel cancels one of user's Confirmed bookings and reverses its loyalty
// effect.  Cancelling twice yields ErrAlreadyCancelled and changes nothing.
func (s *BookingService) Cancel(ctx context.Context, user model.User, bookingID uint64) (model.Booking, error) {
	var (
		out     model.Booking
		balance int
	)
	err := withRetry(ctx, txAttempts, func() error {
		return s.tx.Do(ctx, func(ctx context.Context) error {
			// user row first, same lock order as Commit
			u, err := s.users.GetByIDForUpdate(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			b, err := s.bookings.GetByIDForUpdate(ctx, bookingID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			if err != nil {
				return fmt.Errorf("load booking: %w", err)
			}
			if b.UserID != u.ID {
				return ErrForbidden
			}
			if !b.IsConfirmed() {
				return ErrAlreadyCancelled
			}
			if err := s.bookings.SetStatus(ctx, b.ID, model.StatusCancelled); err != nil {
				return fmt.Errorf("cancel booking: %w", err)
			}
			balance = BalanceAfterCancel(u.LoyaltyPoints, b.PointsRedeemed)
			if err := s.users.SetLoyaltyPoints(ctx, u.ID, balance); err != nil {
				return fmt.Errorf("update loyalty points: %w", err)
			}
			b.Status = model.StatusCancelled
			out = b
			return nil
		})
	})
	if err != nil {
		return model.Booking{}, err
	}

	s.log.Info().Uint64("booking_id", out.ID).Uint64("user_id", user.ID).Msg("booking cancelled")
	var turfName string
	if t, err := s.turfs.GetByID(ctx, out.TurfID); err == nil {
		turfName = t.Name
	}
	s.publish(ctx, queue.EventBookingCancelled, out, turfName, balance)
	return out, nil
}

// Dashboard returns user's bookings, most recent slot first, and the
// current balance.
func (s *BookingService) Dashboard(ctx context.Context, user model.User) (Dashboard, error) {
	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load user: %w", err)
	}
	list, err := s.bookings.ListByUser(ctx, user.ID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list bookings: %w", err)
	}
	return Dashboard{User: fresh, Bookings: list}, nil
}

func (s *BookingService) turf(ctx context.Context, id uint64) (model.Turf, error) {
	t, err := s.turfs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Turf{}, ErrTurfNotFound
	}
	if err != nil {
		return model.Turf{}, fmt.Errorf("load turf: %w", err)
	}
	return t, nil
}

// publish is best effort: failures are logged and never reach the caller.
func (s *BookingService) publish(ctx context.Context, kind string, b model.Booking, turfName string, balance int) {
	if s.events == nil {
		return
	}
	ev := queue.NewBookingEvent(kind)
	ev.BookingID = b.ID
	ev.UserID = b.UserID
	ev.TurfID = b.TurfID
	ev.TurfName = turfName
	ev.BookingTime = b.BookingTime.UTC().Format(model.SlotLayout)
	ev.AmountPaid = b.AmountPaid.StringFixed(2)
	ev.PointsRedeemed = b.PointsRedeemed
	ev.LoyaltyBalance = balance

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", kind).Uint64("booking_id", b.ID).Msg("publish booking event failed")
	}
}
