package repository

import (
	"context"
	"database/sql"
	"strings"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/utils"
)

const userColumns = "id,username,email,password_hash,loyalty_points,is_admin,created_at"

type UserRepo struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func NewUserRepo(db *sql.DB, getter *trmsql.CtxGetter) *UserRepo {
	return &UserRepo{db: db, getter: getter}
}

func (r *UserRepo) conn(ctx context.Context) trmsql.Tr { return r.getter.DefaultTrOrDB(ctx, r.db) }

// Create hashes the password and inserts the user, returning its ID.  A
// taken username yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, isAdmin bool, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.conn(ctx).ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_admin) VALUES (?,?,?,?)",
		username, strings.TrimSpace(email), hash, isAdmin)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by login handle.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByIDForUpdate fetches a user and locks the row until the surrounding
// transaction ends.  Concurrent balance changes of one user serialize here.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1 FOR UPDATE", id)
}

// SetLoyaltyPoints overwrites the user's balance.
func (r *UserRepo) SetLoyaltyPoints(ctx context.Context, id uint64, points int) error {
	res, err := r.conn(ctx).ExecContext(ctx, "UPDATE users SET loyalty_points=? WHERE id=?", points, id)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// confirm the user exists before calling it missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// PromoteToAdmin sets the administrator flag on an existing user.
func (r *UserRepo) PromoteToAdmin(ctx context.Context, id uint64) error {
	_, err := r.conn(ctx).ExecContext(ctx, "UPDATE users SET is_admin=TRUE WHERE id=?", id)
	return translate(err)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.LoyaltyPoints, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return model.User{}, translate(err)
	}
	return u, nil
}
