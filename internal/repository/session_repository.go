package repository

import (
    "context"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

const sessionColumns = `id, organizer_id, title, starts_at, location, total_slots, available_slots,
               price_cents, subscriber_cancel_hours, drop_in_cancel_hours,
               cancelled, cancelled_at, created_at, updated_at`

func scanSession(row interface{ Scan(dest ...interface{}) error }, s *model.Session) error {
    return row.Scan(
        &s.ID, &s.OrganizerID, &s.Title, &s.StartsAt, &s.Location, &s.TotalSlots, &s.AvailableSlots,
        &s.PriceCents, &s.SubscriberCancelHours, &s.DropInCancelHours,
        &s.Cancelled, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt,
    )
}

// GetSession returns a session without locking it.
func (s *Store) GetSession(ctx context.Context, id uint64) (model.Session, error) {
    const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
    var sess model.Session
    if err := scanSession(s.q(ctx).QueryRowContext(ctx, q, id), &sess); err != nil {
        return model.Session{}, wrap("get session", err)
    }
    return sess, nil
}

// GetSessionForUpdate loads the session under an exclusive row lock.  The
// lock is held until the surrounding transaction commits; every capacity
// decision for the session serializes on it.
func (s *Store) GetSessionForUpdate(ctx context.Context, id uint64) (model.Session, error) {
    const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? FOR UPDATE`
    var sess model.Session
    if err := scanSession(s.q(ctx).QueryRowContext(ctx, q, id), &sess); err != nil {
        return model.Session{}, wrap("get session for update", err)
    }
    return sess, nil
}

// SetAvailableSlots writes the slot counter.  Only the capacity ledger calls
// this, after validating the value against the locked row.
func (s *Store) SetAvailableSlots(ctx context.Context, sessionID uint64, slots int) error {
    const q = `UPDATE sessions SET available_slots = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, slots, sessionID)
    return wrap("set available slots", err)
}

// InsertSession creates a session and populates the generated ID and
// timestamps on the passed record.  available_slots starts at total_slots.
func (s *Store) InsertSession(ctx context.Context, sess *model.Session) error {
    const q = `INSERT INTO sessions (organizer_id, title, starts_at, location, total_slots, available_slots,
                                     price_cents, subscriber_cancel_hours, drop_in_cancel_hours)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := s.q(ctx).ExecContext(ctx, q,
        sess.OrganizerID, sess.Title, sess.StartsAt.UTC(), sess.Location, sess.TotalSlots, sess.TotalSlots,
        sess.PriceCents, sess.SubscriberCancelHours, sess.DropInCancelHours,
    )
    if err != nil {
        return wrap("insert session", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return wrap("insert session", err)
    }
    sess.ID = uint64(id)
    sess.AvailableSlots = sess.TotalSlots
    // Query back the row to populate timestamps and defaults.
    got, err := s.GetSession(ctx, sess.ID)
    if err != nil {
        return err
    }
    *sess = got
    return nil
}

// CancelSession soft-cancels a session.  Bookings keep referencing it; the
// row is never deleted.
func (s *Store) CancelSession(ctx context.Context, id uint64, at time.Time) error {
    const q = `UPDATE sessions SET cancelled = TRUE, cancelled_at = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND cancelled = FALSE`
    res, err := s.q(ctx).ExecContext(ctx, q, at.UTC(), id)
    if err != nil {
        return wrap("cancel session", err)
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        // Either missing or already cancelled; let the caller probe.
        if _, err := s.GetSession(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

// ListUpcomingSessions returns live sessions that have not started yet,
// soonest first.
func (s *Store) ListUpcomingSessions(ctx context.Context, now time.Time) ([]model.Session, error) {
    const q = `SELECT ` + sessionColumns + ` FROM sessions
               WHERE cancelled = FALSE AND starts_at > ?
               ORDER BY starts_at ASC`
    rows, err := s.q(ctx).QueryContext(ctx, q, now.UTC())
    if err != nil {
        return nil, wrap("list upcoming sessions", err)
    }
    defer rows.Close()
    sessions := make([]model.Session, 0)
    for rows.Next() {
        var sess model.Session
        if err := scanSession(rows, &sess); err != nil {
            return nil, wrap("list upcoming sessions", err)
        }
        sessions = append(sessions, sess)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list upcoming sessions", err)
    }
    return sessions, nil
}

// ListOpenSessionsWithWaiters returns IDs of live future sessions with free
// capacity and at least one waitlist entry.  Used by the waitlist scheduler
// to pick its work set for a tick.
func (s *Store) ListOpenSessionsWithWaiters(ctx context.Context, now time.Time) ([]uint64, error) {
    const q = `SELECT DISTINCT se.id
               FROM sessions se
               JOIN waitlist_entries w ON w.session_id = se.id
               WHERE se.cancelled = FALSE
                 AND se.starts_at > ?
                 AND se.available_slots > 0
               ORDER BY se.id`
    rows, err := s.q(ctx).QueryContext(ctx, q, now.UTC())
    if err != nil {
        return nil, wrap("list sessions with waiters", err)
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, wrap("list sessions with waiters", err)
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list sessions with waiters", err)
    }
    return ids, nil
}
