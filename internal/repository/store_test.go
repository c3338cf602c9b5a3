package repository

import (
    "database/sql"
    "errors"
    "testing"

    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"

    "github.com/courtclub/session-booking/internal/booking"
)

func TestWrapMapsDriverErrors(t *testing.T) {
    assert.NoError(t, wrap("op", nil))

    err := wrap("get booking", sql.ErrNoRows)
    assert.ErrorIs(t, err, booking.ErrNotFound)

    err = wrap("lock session", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
    assert.ErrorIs(t, err, booking.ErrConcurrentModification)

    err = wrap("lock session", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
    assert.ErrorIs(t, err, booking.ErrConcurrentModification)

    // Other driver errors pass through wrapped but unmapped.
    plain := wrap("insert", errors.New("connection reset"))
    assert.Error(t, plain)
    assert.NotErrorIs(t, plain, booking.ErrNotFound)
    assert.NotErrorIs(t, plain, booking.ErrConcurrentModification)
    assert.Contains(t, plain.Error(), "insert")
}
