package repository

import (
    "context"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

const waitlistColumns = `id, session_id, user_id, priority, notified_at, can_book, created_at`

func scanWaitlistEntry(row interface{ Scan(dest ...interface{}) error }, e *model.WaitlistEntry) error {
    return row.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Priority, &e.NotifiedAt, &e.CanBook, &e.CreatedAt)
}

// InsertWaitlistEntry queues a user on a session and populates the generated
// ID and join timestamp.
func (s *Store) InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
    const q = `INSERT INTO waitlist_entries (session_id, user_id, priority) VALUES (?, ?, ?)`
    res, err := s.q(ctx).ExecContext(ctx, q, e.SessionID, e.UserID, e.Priority)
    if err != nil {
        return wrap("insert waitlist entry", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return wrap("insert waitlist entry", err)
    }
    e.ID = uint64(id)
    got, err := s.GetWaitlistEntry(ctx, e.SessionID, e.UserID)
    if err != nil {
        return err
    }
    *e = got
    return nil
}

// GetWaitlistEntry returns the user's entry on a session, or
// booking.ErrNotFound.
func (s *Store) GetWaitlistEntry(ctx context.Context, sessionID, userID uint64) (model.WaitlistEntry, error) {
    const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries
               WHERE session_id = ? AND user_id = ?`
    var e model.WaitlistEntry
    if err := scanWaitlistEntry(s.q(ctx).QueryRowContext(ctx, q, sessionID, userID), &e); err != nil {
        return model.WaitlistEntry{}, wrap("get waitlist entry", err)
    }
    return e, nil
}

// DeleteWaitlistEntry removes the user's entry.
func (s *Store) DeleteWaitlistEntry(ctx context.Context, sessionID, userID uint64) error {
    const q = `DELETE FROM waitlist_entries WHERE session_id = ? AND user_id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, sessionID, userID)
    return wrap("delete waitlist entry", err)
}

// ListWaitlist returns a session's queue in release order: subscribers
// before drop-ins, FIFO within each tier.
func (s *Store) ListWaitlist(ctx context.Context, sessionID uint64) ([]model.WaitlistEntry, error) {
    const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries
               WHERE session_id = ?
               ORDER BY priority DESC, created_at ASC, id ASC`
    rows, err := s.q(ctx).QueryContext(ctx, q, sessionID)
    if err != nil {
        return nil, wrap("list waitlist", err)
    }
    defer rows.Close()
    entries := make([]model.WaitlistEntry, 0)
    for rows.Next() {
        var e model.WaitlistEntry
        if err := scanWaitlistEntry(rows, &e); err != nil {
            return nil, wrap("list waitlist", err)
        }
        entries = append(entries, e)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list waitlist", err)
    }
    return entries, nil
}

// MarkWaitlistNotified grants one entry access to the freed slot.
func (s *Store) MarkWaitlistNotified(ctx context.Context, entryID uint64, at time.Time) error {
    const q = `UPDATE waitlist_entries SET notified_at = ?, can_book = TRUE WHERE id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, at.UTC(), entryID)
    return wrap("mark waitlist notified", err)
}

// ResetWaitlistNotifications returns every entry of the session to the
// waiting state after someone claims the opening.  Positions are kept.
func (s *Store) ResetWaitlistNotifications(ctx context.Context, sessionID uint64) error {
    const q = `UPDATE waitlist_entries SET notified_at = NULL, can_book = FALSE WHERE session_id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, sessionID)
    return wrap("reset waitlist notifications", err)
}
