package booking

import (
    "context"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
)

func newTestReaper(store *fakeStore, now time.Time) *Reaper {
    lf := newTestLifecycle(store, now, nil)
    return NewReaper(store, lf, clock.NewFixed(now), zerolog.Nop())
}

func TestSweepReclaimsExpiredBookings(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 1)
    lf := newTestLifecycle(store, t0, nil)

    // A subscriber with a ticket but guests still owes the guest amount,
    // so the booking stays pending with a deadline and a spent ticket.
    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, GuestCount: 2, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)
    require.Equal(t, model.PaymentStatusPending, b.PaymentStatus)

    other, err := lf.Create(context.Background(), CreateInput{
        UserID: 8, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    reaper := newTestReaper(store, t0.Add(31*time.Minute))
    reclaimed, err := reaper.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 2, reclaimed)

    got, err := store.GetBooking(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)
    require.NotNil(t, got.CancelledAt)

    got, err = store.GetBooking(context.Background(), other.ID)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusFailed, got.PaymentStatus)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 10, sess.AvailableSlots)

    // The spent ticket came back.
    sub, _ := store.GetActiveSubscription(context.Background(), 7)
    assert.Equal(t, 1, sub.TicketsRemaining)
}

func TestSweepLeavesLiveBookingsAlone(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 1)
    lf := newTestLifecycle(store, t0, nil)

    // Auto-confirmed by the ticket: no deadline, never swept.
    confirmed, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    // Pending but still inside the payment window.
    pending, err := lf.Create(context.Background(), CreateInput{
        UserID: 8, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    reaper := newTestReaper(store, t0.Add(10*time.Minute))
    reclaimed, err := reaper.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 0, reclaimed)

    got, _ := store.GetBooking(context.Background(), confirmed.ID)
    assert.Equal(t, model.PaymentStatusConfirmed, got.PaymentStatus)
    got, _ = store.GetBooking(context.Background(), pending.ID)
    assert.Equal(t, model.PaymentStatusPending, got.PaymentStatus)
    assert.Nil(t, got.CancelledAt)
}

func TestSweepReclaimsUnpaidCashBooking(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(240*time.Hour), 1, nil)
    lf := newTestLifecycle(store, t0, nil)

    // A cash booking that is never paid must not hold the only slot
    // until the session starts.
    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodCash,
    })
    require.NoError(t, err)

    reaper := newTestReaper(store, t0.Add(time.Hour))
    reclaimed, err := reaper.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, reclaimed)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 1, sess.AvailableSlots)
}

func TestSweepIsIdempotent(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    reaper := newTestReaper(store, t0.Add(time.Hour))
    first, err := reaper.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, first)

    second, err := reaper.Sweep(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 0, second)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 10, sess.AvailableSlots)
}

func TestExpireRacingCancelIsHarmless(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    _, err = lf.Cancel(context.Background(), b.ID, 7)
    require.NoError(t, err)

    // The reaper losing the race just observes the terminal row.
    late := newTestLifecycle(store, t0.Add(time.Hour), nil)
    expired, err := late.Expire(context.Background(), b.ID)
    require.NoError(t, err)
    assert.False(t, expired)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 10, sess.AvailableSlots)
}
