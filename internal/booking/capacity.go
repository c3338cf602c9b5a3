package booking

import (
    "context"
    "fmt"

    "github.com/rs/zerolog"
)

// CapacityLedger is the only component allowed to mutate a session's
// available_slots.  Both operations must run inside the caller's transaction:
// they re-acquire the session row lock (a no-op when the caller already holds
// it) so the count they act on cannot go stale before commit.
type CapacityLedger struct {
    store SessionStore
    log   zerolog.Logger
}

// NewCapacityLedger returns a ledger bound to the given session store.
func NewCapacityLedger(store SessionStore, log zerolog.Logger) *CapacityLedger {
    return &CapacityLedger{store: store, log: log}
}

// Reserve atomically takes slotsNeeded slots from the session.  It returns
// ErrCapacityExceeded without mutating anything when fewer slots are free;
// partial reservation never happens.
func (l *CapacityLedger) Reserve(ctx context.Context, sessionID uint64, slotsNeeded int) error {
    if slotsNeeded <= 0 {
        return fmt.Errorf("reserve: invalid slot count %d", slotsNeeded)
    }
    sess, err := l.store.GetSessionForUpdate(ctx, sessionID)
    if err != nil {
        return err
    }
    if sess.AvailableSlots < slotsNeeded {
        return ErrCapacityExceeded
    }
    return l.store.SetAvailableSlots(ctx, sessionID, sess.AvailableSlots-slotsNeeded)
}

// Release returns slots to the session, clamped so available_slots can never
// exceed total_slots.  Hitting the clamp means some caller released twice;
// the write still proceeds but the inconsistency is logged for followup.
func (l *CapacityLedger) Release(ctx context.Context, sessionID uint64, slots int) error {
    if slots <= 0 {
        return fmt.Errorf("release: invalid slot count %d", slots)
    }
    sess, err := l.store.GetSessionForUpdate(ctx, sessionID)
    if err != nil {
        return err
    }
    next := sess.AvailableSlots + slots
    if next > sess.TotalSlots {
        l.log.Warn().
            Uint64("session_id", sessionID).
            Int("available", sess.AvailableSlots).
            Int("released", slots).
            Int("total", sess.TotalSlots).
            Msg("slot release clamped at total capacity; possible duplicate release")
        next = sess.TotalSlots
    }
    return l.store.SetAvailableSlots(ctx, sessionID, next)
}
