package repository

import (
	"context"
	"database/sql"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
)

// SessionRepo persists/validates login sessions (single 'token_hash' column).
type SessionRepo struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
}

func NewSessionRepo(db *sql.DB, getter *trmsql.CtxGetter) *SessionRepo {
	return &SessionRepo{db: db, getter: getter}
}

// Store inserts a session hash row.
func (r *SessionRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return translate(err)
}

// Validate returns userID if a non-revoked, non-expired session exists.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, translate(err)
	}
	if revokedAt.Valid {
		return 0, ErrNotFound
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// Revoke marks a session as ended.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return translate(err)
}
