package repository

import (
    "context"

    "github.com/courtclub/session-booking/internal/model"
)

const subscriptionColumns = `id, user_id, status, tickets_remaining, period_start, period_end,
               created_at, updated_at`

func scanSubscription(row interface{ Scan(dest ...interface{}) error }, sub *model.Subscription) error {
    return row.Scan(
        &sub.ID, &sub.UserID, &sub.Status, &sub.TicketsRemaining, &sub.PeriodStart, &sub.PeriodEnd,
        &sub.CreatedAt, &sub.UpdatedAt,
    )
}

// GetActiveSubscription returns the user's active subscription without
// locking, or booking.ErrNotFound when none is active.
func (s *Store) GetActiveSubscription(ctx context.Context, userID uint64) (model.Subscription, error) {
    const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
               WHERE user_id = ? AND status = ?`
    var sub model.Subscription
    err := scanSubscription(s.q(ctx).QueryRowContext(ctx, q, userID, model.SubscriptionActive), &sub)
    if err != nil {
        return model.Subscription{}, wrap("get active subscription", err)
    }
    return sub, nil
}

// GetActiveSubscriptionForUpdate locks the user's active subscription row
// for a ticket debit.  Acquired after the session lock, never before.
func (s *Store) GetActiveSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error) {
    const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
               WHERE user_id = ? AND status = ? FOR UPDATE`
    var sub model.Subscription
    err := scanSubscription(s.q(ctx).QueryRowContext(ctx, q, userID, model.SubscriptionActive), &sub)
    if err != nil {
        return model.Subscription{}, wrap("get active subscription for update", err)
    }
    return sub, nil
}

// GetSubscriptionForUpdate locks the user's subscription regardless of
// status.  Ticket restores use this so a lapsed subscription still receives
// the ticket back.
func (s *Store) GetSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error) {
    const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
               WHERE user_id = ? FOR UPDATE`
    var sub model.Subscription
    err := scanSubscription(s.q(ctx).QueryRowContext(ctx, q, userID), &sub)
    if err != nil {
        return model.Subscription{}, wrap("get subscription for update", err)
    }
    return sub, nil
}

// SetTicketBalance writes the cached ticket balance.  Only the ticket ledger
// calls this, inside the same transaction that appends the matching
// TicketTransaction.
func (s *Store) SetTicketBalance(ctx context.Context, subscriptionID uint64, balance int) error {
    const q = `UPDATE subscriptions SET tickets_remaining = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := s.q(ctx).ExecContext(ctx, q, balance, subscriptionID)
    return wrap("set ticket balance", err)
}

// AppendTicketTransaction appends one row to the audit log and populates the
// generated ID.  Rows are never updated or deleted afterwards.
func (s *Store) AppendTicketTransaction(ctx context.Context, t *model.TicketTransaction) error {
    const q = `INSERT INTO ticket_transactions (user_id, subscription_id, booking_id, kind, amount,
                                                balance_after, note)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := s.q(ctx).ExecContext(ctx, q,
        t.UserID, t.SubscriptionID, t.BookingID, t.Kind, t.Amount, t.BalanceAfter, t.Note,
    )
    if err != nil {
        return wrap("append ticket transaction", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return wrap("append ticket transaction", err)
    }
    t.ID = uint64(id)
    return nil
}

// ListTicketTransactions returns a user's ledger rows oldest first, for
// balance audits and history endpoints.
func (s *Store) ListTicketTransactions(ctx context.Context, userID uint64) ([]model.TicketTransaction, error) {
    const q = `SELECT id, user_id, subscription_id, booking_id, kind, amount, balance_after, note, created_at
               FROM ticket_transactions WHERE user_id = ? ORDER BY id ASC`
    rows, err := s.q(ctx).QueryContext(ctx, q, userID)
    if err != nil {
        return nil, wrap("list ticket transactions", err)
    }
    defer rows.Close()
    txs := make([]model.TicketTransaction, 0)
    for rows.Next() {
        var t model.TicketTransaction
        if err := rows.Scan(&t.ID, &t.UserID, &t.SubscriptionID, &t.BookingID, &t.Kind,
            &t.Amount, &t.BalanceAfter, &t.Note, &t.CreatedAt); err != nil {
            return nil, wrap("list ticket transactions", err)
        }
        txs = append(txs, t)
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("list ticket transactions", err)
    }
    return txs, nil
}
