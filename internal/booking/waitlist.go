package booking

import (
    "context"
    "errors"
    "time"

    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
)

// Waitlist manages the per-session queue and its staggered release.  The
// queue orders subscribers ahead of drop-ins, FIFO within each tier.  When
// capacity frees up the scheduler notifies the head exclusively, then
// unlocks one further entry per elapsed exclusive window; access accumulates
// and is never revoked while the opening is unclaimed.  The actual race for
// the slot is settled by the capacity ledger inside Lifecycle.Create, not
// here.
type Waitlist struct {
    store    Store
    policies PolicySource
    clock    clock.Clock
    notifier Notifier // optional
    log      zerolog.Logger
}

// NewWaitlist wires the waitlist queue and scheduler.  notifier may be nil.
func NewWaitlist(store Store, policies PolicySource, clk clock.Clock, notifier Notifier, log zerolog.Logger) *Waitlist {
    return &Waitlist{store: store, policies: policies, clock: clk, notifier: notifier, log: log}
}

// Join queues the user on a session.  The priority tier is snapshotted from
// the user's subscription status at join time.  Joining twice is a no-op
// returning the existing entry.
func (w *Waitlist) Join(ctx context.Context, sessionID, userID uint64) (model.WaitlistEntry, error) {
    var entry model.WaitlistEntry
    err := w.store.WithTx(ctx, func(ctx context.Context) error {
        sess, err := w.store.GetSession(ctx, sessionID)
        if err != nil {
            return err
        }
        if sess.Cancelled {
            return ErrSessionCancelled
        }
        if !sess.StartsAt.After(w.clock.Now()) {
            return ErrSessionStarted
        }
        entry, err = w.store.GetWaitlistEntry(ctx, sessionID, userID)
        if err == nil {
            return nil
        }
        if !errors.Is(err, ErrNotFound) {
            return err
        }
        tier := model.WaitlistTierDropIn
        if _, err := w.store.GetActiveSubscription(ctx, userID); err == nil {
            tier = model.WaitlistTierSubscriber
        } else if !errors.Is(err, ErrNotFound) {
            return err
        }
        entry = model.WaitlistEntry{
            SessionID: sessionID,
            UserID:    userID,
            Priority:  tier,
        }
        return w.store.InsertWaitlistEntry(ctx, &entry)
    })
    if err != nil {
        return model.WaitlistEntry{}, err
    }
    return entry, nil
}

// Leave removes the user's entry.  Returns ErrNotFound when there is none.
func (w *Waitlist) Leave(ctx context.Context, sessionID, userID uint64) error {
    return w.store.WithTx(ctx, func(ctx context.Context) error {
        if _, err := w.store.GetWaitlistEntry(ctx, sessionID, userID); err != nil {
            return err
        }
        return w.store.DeleteWaitlistEntry(ctx, sessionID, userID)
    })
}

// Tick advances the staggered release on every session that has freed
// capacity and waiting users.  Per-session failures are logged and skipped so
// one bad row never stalls the rest.  Returns the number of entries granted
// access this tick.
func (w *Waitlist) Tick(ctx context.Context) (int, error) {
    pol, err := w.policies.LoadPolicy(ctx)
    if err != nil {
        return 0, err
    }
    now := w.clock.Now()
    sessionIDs, err := w.store.ListOpenSessionsWithWaiters(ctx, now)
    if err != nil {
        return 0, err
    }

    granted := 0
    window := time.Duration(pol.ExclusiveWindowHours) * time.Hour
    for _, sid := range sessionIDs {
        entry, ok, err := w.advanceSession(ctx, sid, now, window)
        if err != nil {
            w.log.Error().Err(err).Uint64("session_id", sid).Msg("waitlist advance failed; continuing tick")
            continue
        }
        if !ok {
            continue
        }
        granted++
        w.log.Info().
            Uint64("session_id", sid).
            Uint64("user_id", entry.UserID).
            Int("priority", entry.Priority).
            Msg("waitlist access granted")
        w.notify(ctx, entry, now.Add(window))
    }
    return granted, nil
}

// advanceSession unlocks at most one further entry for the session: the head
// when nobody has been notified for the current opening, otherwise the next
// queued entry once the latest grant's exclusive window has fully elapsed.
func (w *Waitlist) advanceSession(ctx context.Context, sessionID uint64, now time.Time, window time.Duration) (model.WaitlistEntry, bool, error) {
    var entry model.WaitlistEntry
    unlocked := false
    err := retryOnContention(ctx, func(ctx context.Context) error {
        unlocked = false
        return w.store.WithTx(ctx, func(ctx context.Context) error {
            // Lock the session row so the advance cannot interleave with a
            // booking that consumes the last free slot.
            sess, err := w.store.GetSessionForUpdate(ctx, sessionID)
            if err != nil {
                return err
            }
            if sess.Cancelled || sess.AvailableSlots == 0 {
                return nil
            }
            entries, err := w.store.ListWaitlist(ctx, sessionID)
            if err != nil {
                return err
            }
            var next *model.WaitlistEntry
            var latest time.Time
            notified := 0
            for i := range entries {
                if entries[i].NotifiedAt != nil {
                    notified++
                    if entries[i].NotifiedAt.After(latest) {
                        latest = *entries[i].NotifiedAt
                    }
                } else if next == nil {
                    next = &entries[i]
                }
            }
            if next == nil {
                // Queue exhausted; everyone already has access.
                return nil
            }
            if notified > 0 && now.Sub(latest) < window {
                // The latest grantee still holds an exclusive window.
                return nil
            }
            if err := w.store.MarkWaitlistNotified(ctx, next.ID, now); err != nil {
                return err
            }
            entry = *next
            entry.NotifiedAt = &now
            entry.CanBook = true
            unlocked = true
            return nil
        })
    })
    return entry, unlocked, err
}

// Run ticks immediately and then on every interval until ctx is cancelled.
func (w *Waitlist) Run(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        if _, err := w.Tick(ctx); err != nil {
            w.log.Error().Err(err).Msg("waitlist tick failed")
        }
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
        }
    }
}

func (w *Waitlist) notify(ctx context.Context, entry model.WaitlistEntry, expiresAt time.Time) {
    if w.notifier == nil {
        return
    }
    if err := w.notifier.NotifyWaitlist(ctx, entry.UserID, entry.SessionID, expiresAt); err != nil {
        w.log.Error().Err(err).
            Uint64("user_id", entry.UserID).
            Uint64("session_id", entry.SessionID).
            Msg("waitlist notification dispatch failed")
    }
}
