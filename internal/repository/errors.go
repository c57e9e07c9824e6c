// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors themselves.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as
// a taken username or a second confirmed booking for the same slot.
var ErrDuplicate = errors.New("duplicate")

// ErrRetryable is returned when MySQL aborted the statement because of a
// deadlock or a lock wait timeout.  The whole transaction may be retried.
var ErrRetryable = errors.New("retryable transaction failure")

// MySQL server error numbers the repositories translate.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// translate maps driver errors onto the sentinels above, wrapping the
// original so callers can still log it.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrDupEntry:
			return errors.Join(ErrDuplicate, err)
		case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
			return errors.Join(ErrRetryable, err)
		}
	}
	return err
}
