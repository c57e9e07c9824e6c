package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL applied on startup.  Statements are idempotent so
// Migrate may run on every boot.
//
// bookings.active_slot is 1 while a booking is Confirmed and NULL
// otherwise.  The unique key over (turf_id, booking_time, active_slot)
// therefore admits any number of cancelled rows for a slot but at most one
// confirmed row; a second concurrent confirm fails with error 1062.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username       VARCHAR(64)  NOT NULL,
		email          VARCHAR(255) NOT NULL DEFAULT '',
		password_hash  VARCHAR(255) NOT NULL,
		loyalty_points INT UNSIGNED NOT NULL DEFAULT 0,
		is_admin       BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS turfs (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name           VARCHAR(128)  NOT NULL,
		location       VARCHAR(255)  NOT NULL,
		description    TEXT          NOT NULL,
		price_per_hour DECIMAL(10,2) NOT NULL,
		image_url      VARCHAR(512)  NOT NULL,
		created_at     DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id         BIGINT UNSIGNED NOT NULL,
		turf_id         BIGINT UNSIGNED NOT NULL,
		booking_time    DATETIME        NOT NULL,
		amount_paid     DECIMAL(10,2)   NOT NULL,
		points_redeemed INT UNSIGNED    NOT NULL DEFAULT 0,
		status          VARCHAR(16)     NOT NULL DEFAULT 'Confirmed',
		active_slot     TINYINT AS (IF(status = 'Confirmed', 1, NULL)) STORED,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_active_slot (turf_id, booking_time, active_slot),
		KEY idx_bookings_user (user_id, booking_time),
		KEY idx_bookings_time (booking_time),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_bookings_turf FOREIGN KEY (turf_id) REFERENCES turfs (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_sessions_token (token_hash),
		KEY idx_sessions_user (user_id),
		CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
