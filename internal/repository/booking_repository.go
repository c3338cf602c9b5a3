package repository

import (
    "context"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

const bookingColumns = `id, user_id, session_id, booking_code, guest_count, tickets_used,
               discount_applied, price_cents, guest_price_cents, payment_method,
               payment_status, payment_deadline, cancelled_at, created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...interface{}) error }, b *model.Booking) error {
    return row.Scan(
        &b.ID, &b.UserID, &b.SessionID, &b.BookingCode, &b.GuestCount, &b.TicketsUsed,
        &b.DiscountApplied, &b.PriceCents, &b.GuestPriceCents, &b.PaymentMethod,
        &b.PaymentStatus, &b.PaymentDeadline, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt,
    )
}

// InsertBooking creates a booking row and populates the generated ID and
// timestamps on the passed record.  The caller has already reserved the
// booking's slots in the same transaction.
func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, session_id, booking_code, guest_count, tickets_used,
                                     discount_applied, price_cents, guest_price_cents,
                                     payment_method, payment_status, payment_deadline)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var deadline interface{}
    if b.PaymentDeadline != nil {
        deadline = b.PaymentDeadline.UTC()
    }
    res, err := s.q(ctx).ExecContext(ctx, q,
        b.UserID, b.SessionID, b.BookingCode, b.GuestCount, b.TicketsUsed,
        b.DiscountApplied, b.PriceCents, b.GuestPriceCents,
        b.PaymentMethod, b.PaymentStatus, deadline,
    )
    if err != nil {
        return wrap("insert booking", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return wrap("insert booking", err)
    }
    b.ID = uint64(id)
    got, err := s.GetBooking(ctx, b.ID)
    if err != nil {
        return err
    }
    *b = got
    return nil
}

// GetBooking returns a booking without locking it.
func (s *Store) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    var b model.Booking
    if err := scanBooking(s.q(ctx).QueryRowContext(ctx, q, id), &b); err != nil {
        return model.Booking{}, wrap("get booking", err)
    }
    return b, nil
}

// GetBookingForUpdate loads the booking under an exclusive row lock.  Always
// acquired after the session lock; the fixed order keeps concurrent
// cancel/expire transactions deadlock-free.
func (s *Store) GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
    var b model.Booking
    if err := scanBooking(s.q(ctx).QueryRowContext(ctx, q, id), &b); err != nil {
        return model.Booking{}, wrap("get booking for update", err)
    }
    return b, nil
}

// HasActiveBooking reports whether the user already holds a non-terminal
// booking on the session.
func (s *Store) HasActiveBooking(ctx context.Context, userID, sessionID uint64) (bool, error) {
    const q = `SELECT COUNT(*) FROM bookings
               WHERE user_id = ? AND session_id = ? AND cancelled_at IS NULL`
    var n int64
    if err := s.q(ctx).QueryRowContext(ctx, q, userID, sessionID).Scan(&n); err != nil {
        return false, wrap("has active booking", err)
    }
    return n > 0, nil
}

// FinalizeBooking writes the terminal fields in one statement.  The guard on
// cancelled_at makes a double finalize a no-op at the storage level too,
// though the lifecycle already checks under lock.
func (s *Store) FinalizeBooking(ctx context.Context, id uint64, status string, cancelledAt time.Time) error {
    const q = `UPDATE bookings
               SET payment_status = ?, cancelled_at = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND cancelled_at IS NULL`
    _, err := s.q(ctx).ExecContext(ctx, q, status, cancelledAt.UTC(), id)
    return wrap("finalize booking", err)
}

// SetPaymentStatus updates only the payment status (pending -> confirmed).
func (s *Store) SetPaymentStatus(ctx context.Context, id uint64, status string) error {
    const q = `UPDATE bookings SET payment_status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, status, id)
    return wrap("set payment status", err)
}

// ListBookingsByUser returns the user's bookings, newest first.
func (s *Store) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := s.q(ctx).QueryContext(ctx, q, userID)
    if err != nil {
        return nil, wrap("list bookings by user", err)
    }
    defer rows.Close()
    bookings := make([]model.Booking, 0)
    for rows.Next() {
        var b model.Booking
        if err := scanBooking(rows, &b); err != nil {
            return nil, wrap("list bookings by user", err)
        }
        bookings = append(bookings, b)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list bookings by user", err)
    }
    return bookings, nil
}

// ListExpiredPending returns pending, uncancelled bookings whose payment
// deadline is behind now.  The reaper's candidate query; re-running it after
// a crash re-selects the same rows until each is finalized.
func (s *Store) ListExpiredPending(ctx context.Context, now time.Time) ([]model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings
               WHERE payment_status = ? AND payment_deadline IS NOT NULL
                 AND payment_deadline < ? AND cancelled_at IS NULL
               ORDER BY payment_deadline ASC`
    rows, err := s.q(ctx).QueryContext(ctx, q, model.PaymentStatusPending, now.UTC())
    if err != nil {
        return nil, wrap("list expired pending", err)
    }
    defer rows.Close()
    var stale []model.Booking
    for rows.Next() {
        var b model.Booking
        if err := scanBooking(rows, &b); err != nil {
            return nil, wrap("list expired pending", err)
        }
        stale = append(stale, b)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list expired pending", err)
    }
    return stale, nil
}
