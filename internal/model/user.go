package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers expose a trimmed view; the password hash never
// leaves the service.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique login handle.
//  Email         – contact address (optional at registration).
//  PasswordHash  – bcrypt hashed password.
//  LoyaltyPoints – non-negative loyalty balance.
//  IsAdmin       – whether the user may manage turfs and reports.
//  CreatedAt     – timestamp of creation.
type User struct {
	ID            uint64    // users.id
	Username      string    // users.username
	Email         string    // users.email
	PasswordHash  string    // users.password_hash
	LoyaltyPoints int       // users.loyalty_points
	IsAdmin       bool      // users.is_admin
	CreatedAt     time.Time // users.created_at
}

// Session models an entry in the `sessions` table.  The session cookie
// carries a signed token naming the session; only the SHA‑256 hash of the
// raw session id is stored so a leaked table cannot be replayed.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA‑256 hex digest of the raw session id.
//  ExpiresAt – expiration timestamp of the session.
//  RevokedAt – when the session was ended by logout (nil while active).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64     // sessions.id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}
