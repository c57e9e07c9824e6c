package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"

	"github.com/iliyamo/turf-booking/internal/model"
)

const bookingColumns = "id,user_id,turf_id,booking_time,amount_paid,points_redeemed,status,created_at"

// BookingRepo provides persistence for bookings.  All timestamps are
// stored in UTC.  Methods join the caller's transaction when the context
// carries one.
type BookingRepo struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, getter *trmsql.CtxGetter) *BookingRepo {
	return &BookingRepo{db: db, getter: getter}
}

func (r *BookingRepo) conn(ctx context.Context) trmsql.Tr { return r.getter.DefaultTrOrDB(ctx, r.db) }

// IsSlotAvailable reports whether no Confirmed booking holds the exact
// (turf, time) slot.  An unknown turf simply has no rows and is available.
func (r *BookingRepo) IsSlotAvailable(ctx context.Context, turfID uint64, at time.Time) (bool, error) {
	var id uint64
	err := r.conn(ctx).QueryRowContext(ctx,
		"SELECT id FROM bookings WHERE turf_id=? AND booking_time=? AND status=? LIMIT 1",
		turfID, at.UTC(), model.StatusConfirmed).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return false, nil
}

// BookedSlots lists the start times of Confirmed bookings of a turf within
// [from, to).
func (r *BookingRepo) BookedSlots(ctx context.Context, turfID uint64, from, to time.Time) ([]time.Time, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT booking_time FROM bookings
		 WHERE turf_id=? AND status=? AND booking_time >= ? AND booking_time < ?
		 ORDER BY booking_time`,
		turfID, model.StatusConfirmed, from.UTC(), to.UTC())
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	slots := []time.Time{}
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		slots = append(slots, at.UTC())
	}
	return slots, rows.Err()
}

// Create inserts a booking and fills in its generated ID and timestamp.
// A second Confirmed booking for the same slot yields ErrDuplicate.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.Status == "" {
		b.Status = model.StatusConfirmed
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO bookings (user_id, turf_id, booking_time, amount_paid, points_redeemed, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.TurfID, b.BookingTime.UTC(), b.AmountPaid, b.PointsRedeemed, b.Status)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// GetByID returns the booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return r.scanOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", id)
}

// GetByIDForUpdate returns the booking and locks its row until the
// surrounding transaction ends.
func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
	return r.scanOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1 FOR UPDATE", id)
}

// SetStatus moves a booking to the given status.
func (r *BookingRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.conn(ctx).ExecContext(ctx, "UPDATE bookings SET status=? WHERE id=?", status, id)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByTurf removes every booking of a turf and returns how many rows
// were deleted.
func (r *BookingRepo) DeleteByTurf(ctx context.Context, turfID uint64) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, "DELETE FROM bookings WHERE turf_id=?", turfID)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

// ListByUser returns a user's bookings with turf details, newest slot
// first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserBooking, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT b.id, t.name, t.location, b.booking_time, b.status, b.amount_paid
		 FROM bookings b
		 JOIN turfs t ON b.turf_id = t.id
		 WHERE b.user_id = ?
		 ORDER BY b.booking_time DESC, b.id DESC`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	items := []model.UserBooking{}
	for rows.Next() {
		var ub model.UserBooking
		if err := rows.Scan(&ub.ID, &ub.TurfName, &ub.TurfLocation, &ub.BookingTime, &ub.Status, &ub.AmountPaid); err != nil {
			return nil, err
		}
		items = append(items, ub)
	}
	return items, rows.Err()
}

// ReportRows returns bookings joined with users and turfs, newest slot
// first.  A limit of zero or less returns every row.
func (r *BookingRepo) ReportRows(ctx context.Context, limit int) ([]model.ReportRow, error) {
	query := `SELECT b.id, u.username, t.name, b.booking_time, b.status, b.amount_paid
	          FROM bookings b
	          JOIN users u ON b.user_id = u.id
	          JOIN turfs t ON b.turf_id = t.id
	          ORDER BY b.booking_time DESC, b.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	out := []model.ReportRow{}
	for rows.Next() {
		var row model.ReportRow
		if err := rows.Scan(&row.BookingID, &row.Username, &row.TurfName, &row.BookingTime, &row.Status, &row.AmountPaid); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *BookingRepo) scanOne(ctx context.Context, query string, args ...any) (model.Booking, error) {
	var b model.Booking
	err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(
		&b.ID, &b.UserID, &b.TurfID, &b.BookingTime, &b.AmountPaid, &b.PointsRedeemed, &b.Status, &b.CreatedAt)
	if err != nil {
		return model.Booking{}, translate(err)
	}
	b.BookingTime = b.BookingTime.UTC()
	return b, nil
}
