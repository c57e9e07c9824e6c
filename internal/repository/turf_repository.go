package repository

import (
	"context"
	"database/sql"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"

	"github.com/iliyamo/turf-booking/internal/model"
)

const turfColumns = "id,name,location,description,price_per_hour,image_url,created_at"

// TurfRepo provides CRUD operations for turfs.
type TurfRepo struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func NewTurfRepo(db *sql.DB, getter *trmsql.CtxGetter) *TurfRepo {
	return &TurfRepo{db: db, getter: getter}
}

func (r *TurfRepo) conn(ctx context.Context) trmsql.Tr { return r.getter.DefaultTrOrDB(ctx, r.db) }

// Create inserts a turf and fills in its generated ID and timestamp.
func (r *TurfRepo) Create(ctx context.Context, t *model.Turf) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		"INSERT INTO turfs (name, location, description, price_per_hour, image_url) VALUES (?,?,?,?,?)",
		t.Name, t.Location, t.Description, t.PricePerHour, t.ImageURL)
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
	*t = created
	return nil
}

// GetByID returns the turf or ErrNotFound.
func (r *TurfRepo) GetByID(ctx context.Context, id uint64) (model.Turf, error) {
	var t model.Turf
	err := r.conn(ctx).QueryRowContext(ctx,
		"SELECT "+turfColumns+" FROM turfs WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.Name, &t.Location, &t.Description, &t.PricePerHour, &t.ImageURL, &t.CreatedAt)
	if err != nil {
		return model.Turf{}, translate(err)
	}
	return t, nil
}

// List returns every turf in insertion order.
func (r *TurfRepo) List(ctx context.Context) ([]model.Turf, error) {
	return r.list(ctx, "SELECT "+turfColumns+" FROM turfs ORDER BY id")
}

// ListByName returns every turf ordered by name, as the admin dashboard
// shows them.
func (r *TurfRepo) ListByName(ctx context.Context) ([]model.Turf, error) {
	return r.list(ctx, "SELECT "+turfColumns+" FROM turfs ORDER BY name, id")
}

// Delete removes the turf row.  Bookings must be removed first; see
// BookingRepo.DeleteByTurf.  Returns ErrNotFound when no row matched.
func (r *TurfRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.conn(ctx).ExecContext(ctx, "DELETE FROM turfs WHERE id=?", id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TurfRepo) list(ctx context.Context, query string) ([]model.Turf, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	turfs := []model.Turf{}
	for rows.Next() {
		var t model.Turf
		if err := rows.Scan(&t.ID, &t.Name, &t.Location, &t.Description, &t.PricePerHour, &t.ImageURL, &t.CreatedAt); err != nil {
			return nil, err
		}
		turfs = append(turfs, t)
	}
	return turfs, rows.Err()
}
