package booking

import (
    "context"
    "time"

    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/clock"
)

// Reaper reclaims capacity from pending bookings that missed their payment
// deadline.  Each sweep is at-least-once: a crash mid-sweep just means the
// next tick selects the same candidates again, and Expire's idempotence
// keeps double runs harmless.
type Reaper struct {
    store     BookingStore
    lifecycle *Lifecycle
    clock     clock.Clock
    log       zerolog.Logger
}

// NewReaper returns a reaper driving the given lifecycle.
func NewReaper(store BookingStore, lifecycle *Lifecycle, clk clock.Clock, log zerolog.Logger) *Reaper {
    return &Reaper{store: store, lifecycle: lifecycle, clock: clk, log: log}
}

// Sweep expires every pending booking past its deadline.  Failures are
// logged per booking and never abort the batch.  Returns the number of
// bookings actually expired this sweep.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
    now := r.clock.Now()
    stale, err := r.store.ListExpiredPending(ctx, now)
    if err != nil {
        return 0, err
    }
    if len(stale) == 0 {
        return 0, nil
    }
    r.log.Info().Int("candidates", len(stale)).Msg("reaper sweep started")

    reclaimed := 0
    for _, b := range stale {
        expired, err := r.lifecycle.Expire(ctx, b.ID)
        if err != nil {
            r.log.Error().Err(err).
                Uint64("booking_id", b.ID).
                Str("booking_code", b.BookingCode).
                Msg("expire failed; continuing sweep")
            continue
        }
        if expired {
            reclaimed++
            r.log.Info().
                Uint64("booking_id", b.ID).
                Str("booking_code", b.BookingCode).
                Uint64("session_id", b.SessionID).
                Int("slots_returned", b.Slots()).
                Msg("booking expired, slots reclaimed")
        }
    }
    return reclaimed, nil
}

// Run sweeps immediately and then on every tick of interval until ctx is
// cancelled.  Safe to run redundantly; transitions are idempotent.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        if _, err := r.Sweep(ctx); err != nil {
            r.log.Error().Err(err).Msg("reaper sweep failed")
        }
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
        }
    }
}
