package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", sql.ErrNoRows)), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	err := translate(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, dup)

	for _, n := range []uint16{1205, 1213} {
		err := translate(&mysql.MySQLError{Number: n})
		assert.ErrorIs(t, err, ErrRetryable, "error %d", n)
		assert.NotErrorIs(t, err, ErrDuplicate)
	}

	other := errors.New("connection refused")
	assert.Same(t, other, translate(other))
}
