package booking

import (
    "context"
    "errors"
    "fmt"

    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/model"
)

// TicketLedger is the only component allowed to change a user's prepaid
// ticket balance.  Every mutation locks the subscription row, updates the
// cached balance and appends a TicketTransaction with the resulting balance
// in the same transaction, keeping the log and the counter consistent.
//
// Per-booking idempotence is not re-derived from the log: the booking row's
// tickets_used field and terminal state decide whether a debit or credit may
// happen, and the lifecycle checks those under lock before calling in.
type TicketLedger struct {
    store SubscriptionStore
    log   zerolog.Logger
}

// NewTicketLedger returns a ledger bound to the given subscription store.
func NewTicketLedger(store SubscriptionStore, log zerolog.Logger) *TicketLedger {
    return &TicketLedger{store: store, log: log}
}

// Debit spends one ticket from the user's active subscription for a booking.
// It returns the balance after the debit, or ErrTicketUnavailable when the
// user has no active subscription or an empty balance.
func (l *TicketLedger) Debit(ctx context.Context, userID, bookingID uint64) (int, error) {
    sub, err := l.store.GetActiveSubscriptionForUpdate(ctx, userID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return 0, ErrTicketUnavailable
        }
        return 0, err
    }
    if sub.TicketsRemaining < 1 {
        return 0, ErrTicketUnavailable
    }
    balance := sub.TicketsRemaining - 1
    if err := l.store.SetTicketBalance(ctx, sub.ID, balance); err != nil {
        return 0, err
    }
    note := "used for booking"
    err = l.store.AppendTicketTransaction(ctx, &model.TicketTransaction{
        UserID:         userID,
        SubscriptionID: &sub.ID,
        BookingID:      &bookingID,
        Kind:           model.TicketTxUsed,
        Amount:         -1,
        BalanceAfter:   balance,
        Note:           &note,
    })
    if err != nil {
        return 0, err
    }
    return balance, nil
}

// Credit returns tickets to the user's subscription.  kind must be one of
// the positive transaction kinds (restored, bonus variants,
// subscription_grant).  The subscription is looked up regardless of status
// so a restore still lands after the subscription lapsed.
func (l *TicketLedger) Credit(ctx context.Context, userID uint64, amount int, kind string, bookingID *uint64, note string) (int, error) {
    if amount <= 0 {
        return 0, fmt.Errorf("credit: invalid amount %d", amount)
    }
    switch kind {
    case model.TicketTxRestored, model.TicketTxBonus, model.TicketTxBirthday, model.TicketTxGrant:
    default:
        return 0, fmt.Errorf("credit: invalid transaction kind %q", kind)
    }
    sub, err := l.store.GetSubscriptionForUpdate(ctx, userID)
    if err != nil {
        return 0, err
    }
    balance := sub.TicketsRemaining + amount
    if err := l.store.SetTicketBalance(ctx, sub.ID, balance); err != nil {
        return 0, err
    }
    var notePtr *string
    if note != "" {
        notePtr = &note
    }
    err = l.store.AppendTicketTransaction(ctx, &model.TicketTransaction{
        UserID:         userID,
        SubscriptionID: &sub.ID,
        BookingID:      bookingID,
        Kind:           kind,
        Amount:         amount,
        BalanceAfter:   balance,
        Note:           notePtr,
    })
    if err != nil {
        return 0, err
    }
    l.log.Debug().
        Uint64("user_id", userID).
        Str("kind", kind).
        Int("amount", amount).
        Int("balance_after", balance).
        Msg("ticket credit")
    return balance, nil
}
