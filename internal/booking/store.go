package booking

import (
    "context"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

// Store is the persistence boundary of the engine.  The production
// implementation lives in internal/repository and carries its *sql.Tx in the
// context; tests use an in-memory fake.  Methods suffixed ForUpdate acquire
// an exclusive row lock that is held until the surrounding transaction
// commits, so callers must invoke them inside WithTx.
type Store interface {
    // WithTx runs fn inside a single database transaction.  Nested calls
    // reuse the transaction already carried by ctx.  fn returning an error
    // rolls everything back.
    WithTx(ctx context.Context, fn func(ctx context.Context) error) error

    SessionStore
    BookingStore
    SubscriptionStore
    WaitlistStore
    UserStore
}

// SessionStore accesses session rows.  SetAvailableSlots is intentionally a
// raw write: only the capacity ledger calls it, after validating the new
// value against the locked row.
type SessionStore interface {
    GetSession(ctx context.Context, id uint64) (model.Session, error)
    GetSessionForUpdate(ctx context.Context, id uint64) (model.Session, error)
    SetAvailableSlots(ctx context.Context, sessionID uint64, slots int) error
    InsertSession(ctx context.Context, s *model.Session) error
    CancelSession(ctx context.Context, id uint64, at time.Time) error
    ListUpcomingSessions(ctx context.Context, now time.Time) ([]model.Session, error)
    // ListOpenSessionsWithWaiters returns IDs of live future sessions that
    // have free capacity and at least one waitlist entry.
    ListOpenSessionsWithWaiters(ctx context.Context, now time.Time) ([]uint64, error)
}

// BookingStore accesses booking rows.  FinalizeBooking writes the terminal
// fields (payment status and cancelled_at) in one statement.
type BookingStore interface {
    InsertBooking(ctx context.Context, b *model.Booking) error
    GetBooking(ctx context.Context, id uint64) (model.Booking, error)
    GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error)
    HasActiveBooking(ctx context.Context, userID, sessionID uint64) (bool, error)
    FinalizeBooking(ctx context.Context, id uint64, status string, cancelledAt time.Time) error
    SetPaymentStatus(ctx context.Context, id uint64, status string) error
    ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    ListExpiredPending(ctx context.Context, now time.Time) ([]model.Booking, error)
}

// SubscriptionStore accesses subscription rows and the append-only ticket
// transaction log.  Get methods return ErrNotFound when the user has no
// matching subscription.
type SubscriptionStore interface {
    GetActiveSubscription(ctx context.Context, userID uint64) (model.Subscription, error)
    GetActiveSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error)
    // GetSubscriptionForUpdate returns the user's subscription regardless of
    // status; ticket restores go back even when the subscription lapsed
    // between booking and cancellation.
    GetSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error)
    SetTicketBalance(ctx context.Context, subscriptionID uint64, balance int) error
    AppendTicketTransaction(ctx context.Context, tx *model.TicketTransaction) error
    ListTicketTransactions(ctx context.Context, userID uint64) ([]model.TicketTransaction, error)
}

// WaitlistStore accesses waitlist entries.  ListWaitlist orders by priority
// tier (subscribers first) then join time.
type WaitlistStore interface {
    InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error
    GetWaitlistEntry(ctx context.Context, sessionID, userID uint64) (model.WaitlistEntry, error)
    DeleteWaitlistEntry(ctx context.Context, sessionID, userID uint64) error
    ListWaitlist(ctx context.Context, sessionID uint64) ([]model.WaitlistEntry, error)
    MarkWaitlistNotified(ctx context.Context, entryID uint64, at time.Time) error
    // ResetWaitlistNotifications clears notified_at and can_book on every
    // entry of the session, returning the queue to its waiting state.
    ResetWaitlistNotifications(ctx context.Context, sessionID uint64) error
}

// UserStore accesses the mirrored identity rows.
type UserStore interface {
    // ListBirthdayBonusEligible returns users whose birthday falls on
    // today's month and day, whose account is at least minAgeDays old,
    // who hold an active subscription, and who have not received a
    // birthday credit in the given year yet.
    ListBirthdayBonusEligible(ctx context.Context, today time.Time, minAgeDays, year int) ([]model.User, error)
}

// PolicySource loads the booking policy snapshot.  Implementations read the
// settings table; the snapshot is loaded once per request or tick and never
// mutated by the engine.
type PolicySource interface {
    LoadPolicy(ctx context.Context) (Policy, error)
}

// EventPublisher receives domain events after the owning transaction has
// committed.  Publishing is best effort; failures are logged, never rolled
// back into the transaction.
type EventPublisher interface {
    BookingConfirmed(ctx context.Context, b model.Booking) error
}

// Notifier is the delivery capability for waitlist access grants.  The
// transport (queue, email, push) is outside the engine.
type Notifier interface {
    NotifyWaitlist(ctx context.Context, userID, sessionID uint64, expiresAt time.Time) error
}
