package repository

import (
    "context"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

// ListBirthdayBonusEligible selects users due a birthday ticket today: the
// birthday matches today's month and day, the account predates the minimum
// age, an active subscription exists, and no bonus_birthday ledger row was
// written in the given year.  The ledger row is the dedup marker, so the
// query stays correct across redundant sweeps.
func (s *Store) ListBirthdayBonusEligible(ctx context.Context, today time.Time, minAgeDays, year int) ([]model.User, error) {
    const q = `SELECT u.id, u.email, u.display_name, u.role, u.birthday, u.created_at
               FROM users u
               JOIN subscriptions sub ON sub.user_id = u.id AND sub.status = ?
               WHERE u.birthday IS NOT NULL
                 AND MONTH(u.birthday) = ? AND DAY(u.birthday) = ?
                 AND u.created_at <= ?
                 AND NOT EXISTS (
                     SELECT 1 FROM ticket_transactions t
                     WHERE t.user_id = u.id AND t.kind = ? AND YEAR(t.created_at) = ?
                 )`
    cutoff := today.AddDate(0, 0, -minAgeDays)
    rows, err := s.q(ctx).QueryContext(ctx, q,
        model.SubscriptionActive, int(today.Month()), today.Day(), cutoff, model.TicketTxBirthday, year,
    )
    if err != nil {
        return nil, wrap("list birthday bonus eligible", err)
    }
    defer rows.Close()
    users := make([]model.User, 0)
    for rows.Next() {
        var u model.User
        if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.Birthday, &u.CreatedAt); err != nil {
            return nil, wrap("list birthday bonus eligible", err)
        }
        users = append(users, u)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list birthday bonus eligible", err)
    }
    return users, nil
}
