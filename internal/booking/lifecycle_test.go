package booking

import (
    "context"
    "errors"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
)

var t0 = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func newTestLifecycle(store *fakeStore, now time.Time, events EventPublisher) *Lifecycle {
    return NewLifecycle(store, StaticPolicy{Policy: DefaultPolicy()}, clock.NewFixed(now), events, zerolog.Nop())
}

func TestCreateConcurrentNeverOversells(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 3, nil)
    lf := newTestLifecycle(store, t0, nil)

    const racers = 10
    results := make(chan error, racers)
    var wg sync.WaitGroup
    for i := 0; i < racers; i++ {
        wg.Add(1)
        go func(userID uint64) {
            defer wg.Done()
            _, err := lf.Create(context.Background(), CreateInput{
                UserID:        userID,
                SessionID:     sessionID,
                PaymentMethod: model.PaymentMethodTransfer,
            })
            results <- err
        }(uint64(100 + i))
    }
    wg.Wait()
    close(results)

    won, lost := 0, 0
    for err := range results {
        switch {
        case err == nil:
            won++
        case errors.Is(err, ErrCapacityExceeded):
            lost++
        default:
            t.Fatalf("unexpected create error: %v", err)
        }
    }
    assert.Equal(t, 3, won)
    assert.Equal(t, 7, lost)

    sess, err := store.GetSession(context.Background(), sessionID)
    require.NoError(t, err)
    assert.Equal(t, 0, sess.AvailableSlots)
}

func TestCreateSubscriberWithTicketAutoConfirms(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 4)
    events := &recorder{}
    lf := newTestLifecycle(store, t0, events)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID:        7,
        SessionID:     sessionID,
        PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    assert.Equal(t, 1, b.TicketsUsed)
    assert.Equal(t, "ticket", b.DiscountApplied)
    assert.Equal(t, int64(0), b.TotalCents())
    assert.Equal(t, model.PaymentMethodTicket, b.PaymentMethod)
    assert.Equal(t, model.PaymentStatusConfirmed, b.PaymentStatus)
    assert.Nil(t, b.PaymentDeadline)
    assert.True(t, strings.HasPrefix(b.BookingCode, "SB-"))

    sub, err := store.GetActiveSubscription(context.Background(), 7)
    require.NoError(t, err)
    assert.Equal(t, 3, sub.TicketsRemaining)

    txs, err := store.ListTicketTransactions(context.Background(), 7)
    require.NoError(t, err)
    require.Len(t, txs, 1)
    assert.Equal(t, model.TicketTxUsed, txs[0].Kind)
    assert.Equal(t, -1, txs[0].Amount)
    assert.Equal(t, 3, txs[0].BalanceAfter)

    require.Len(t, events.confirmed, 1)
    assert.Equal(t, b.ID, events.confirmed[0].ID)
}

func TestCreateSubscriberOutOfTickets(t *testing.T) {
    store := newFakeStore()
    price := int64(50000)
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, &price)
    store.addSubscription(7, model.SubscriptionActive, 0)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID:        7,
        SessionID:     sessionID,
        PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    assert.Equal(t, 0, b.TicketsUsed)
    assert.Equal(t, "out_of_ticket", b.DiscountApplied)
    assert.Equal(t, int64(45000), b.PriceCents) // 10% off the own slot
    assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)
    require.NotNil(t, b.PaymentDeadline)
    assert.Equal(t, t0.Add(30*time.Minute), *b.PaymentDeadline)
}

func TestCreateDropInPaysFullPrice(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID:        7,
        SessionID:     sessionID,
        PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)
    assert.Equal(t, "none", b.DiscountApplied)
    assert.Equal(t, DefaultPolicy().DefaultPriceCents, b.PriceCents)
    assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)
}

func TestCreateGuestsAlwaysPayFullPrice(t *testing.T) {
    store := newFakeStore()
    price := int64(40000)
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, &price)
    store.addSubscription(7, model.SubscriptionActive, 4)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID:        7,
        SessionID:     sessionID,
        GuestCount:    2,
        PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    // The ticket covers only the subscriber's own slot; guest slots are
    // never discounted.
    assert.Equal(t, 1, b.TicketsUsed)
    assert.Equal(t, int64(0), b.PriceCents)
    assert.Equal(t, int64(80000), b.GuestPriceCents)
    assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)
    require.NotNil(t, b.PaymentDeadline)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 7, sess.AvailableSlots)
}

func TestCreateRejectsGuestCountOutOfBounds(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, GuestCount: 4, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrGuestLimit)

    _, err = lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, GuestCount: -1, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrGuestLimit)
}

func TestCreateRejectsDuplicateActiveBooking(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    _, err = lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrDuplicateBooking)

    // Capacity charged once.
    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 9, sess.AvailableSlots)
}

func TestCreateRejectsDeadSessions(t *testing.T) {
    store := newFakeStore()
    lf := newTestLifecycle(store, t0, nil)

    cancelled := store.addSession(t0.Add(72*time.Hour), 10, nil)
    require.NoError(t, store.CancelSession(context.Background(), cancelled, t0))
    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: cancelled, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrSessionCancelled)

    started := store.addSession(t0.Add(-time.Hour), 10, nil)
    _, err = lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: started, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrSessionStarted)

    _, err = lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: 9999, PaymentMethod: model.PaymentMethodTransfer,
    })
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsUnknownPaymentMethod(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    _, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: "goats",
    })
    assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestCancelRestoresSlotsAndTicket(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 2)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, GuestCount: 1, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    cancelled, err := lf.Cancel(context.Background(), b.ID, 7)
    require.NoError(t, err)
    require.NotNil(t, cancelled.CancelledAt)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 10, sess.AvailableSlots)

    sub, _ := store.GetActiveSubscription(context.Background(), 7)
    assert.Equal(t, 2, sub.TicketsRemaining)

    txs, _ := store.ListTicketTransactions(context.Background(), 7)
    require.Len(t, txs, 2)
    assert.Equal(t, model.TicketTxRestored, txs[1].Kind)
    assert.Equal(t, 1, txs[1].Amount)
    assert.Equal(t, 2, txs[1].BalanceAfter)
}

func TestCancelConfirmedBookingIsRefunded(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 1)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)
    require.Equal(t, model.PaymentStatusConfirmed, b.PaymentStatus)

    cancelled, err := lf.Cancel(context.Background(), b.ID, 7)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusRefunded, cancelled.PaymentStatus)
}

func TestCancelIsIdempotentOnSlots(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    _, err = lf.Cancel(context.Background(), b.ID, 7)
    require.NoError(t, err)
    _, err = lf.Cancel(context.Background(), b.ID, 7)
    assert.ErrorIs(t, err, ErrAlreadyTerminal)

    sess, _ := store.GetSession(context.Background(), sessionID)
    assert.Equal(t, 10, sess.AvailableSlots)
}

func TestCancelOwnershipEnforced(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    _, err = lf.Cancel(context.Background(), b.ID, 8)
    assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelWindowByTier(t *testing.T) {
    // Session in 36 hours: inside the 24h subscriber window, outside the
    // 48h drop-in window.
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(36*time.Hour), 10, nil)
    store.addSubscription(7, model.SubscriptionActive, 0)
    lf := newTestLifecycle(store, t0, nil)

    sub, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)
    dropIn, err := lf.Create(context.Background(), CreateInput{
        UserID: 8, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    _, err = lf.Cancel(context.Background(), sub.ID, 7)
    assert.NoError(t, err)

    _, err = lf.Cancel(context.Background(), dropIn.ID, 8)
    assert.ErrorIs(t, err, ErrWindowClosed)
}

func TestCancelWindowSessionOverride(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(36*time.Hour), 10, nil)
    hours := 12
    s := store.sessions[sessionID]
    s.DropInCancelHours = &hours
    store.sessions[sessionID] = s
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 8, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    // The 12-hour override replaces the 48-hour default, so 36 hours out
    // is still inside the window.
    _, err = lf.Cancel(context.Background(), b.ID, 8)
    assert.NoError(t, err)
}

func TestCancelBypassesWindowWhenSessionCancelled(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 8, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    require.NoError(t, store.CancelSession(context.Background(), sessionID, t0))

    _, err = lf.Cancel(context.Background(), b.ID, 8)
    assert.NoError(t, err)
}

func TestConfirmPayment(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    events := &recorder{}
    lf := newTestLifecycle(store, t0, events)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    got, err := lf.ConfirmPayment(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusConfirmed, got.PaymentStatus)
    assert.Len(t, events.confirmed, 1)

    // Confirming twice is harmless and must not emit a second event.
    _, err = lf.ConfirmPayment(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Len(t, events.confirmed, 1)
}

func TestConfirmPaymentAfterDeadline(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)

    late := newTestLifecycle(store, t0.Add(31*time.Minute), nil)
    _, err = late.ConfirmPayment(context.Background(), b.ID)
    assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestConfirmPaymentOnCancelledBooking(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodTransfer,
    })
    require.NoError(t, err)
    _, err = lf.Cancel(context.Background(), b.ID, 7)
    require.NoError(t, err)

    _, err = lf.ConfirmPayment(context.Background(), b.ID)
    assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCreateCashBookingGetsDeadline(t *testing.T) {
    store := newFakeStore()
    sessionID := store.addSession(t0.Add(72*time.Hour), 10, nil)
    lf := newTestLifecycle(store, t0, nil)

    // Cash is settled at the front desk, but the slot hold is bounded by
    // the same window as a transfer; otherwise a no-show pins slots.
    b, err := lf.Create(context.Background(), CreateInput{
        UserID: 7, SessionID: sessionID, PaymentMethod: model.PaymentMethodCash,
    })
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)
    require.NotNil(t, b.PaymentDeadline)
    assert.Equal(t, t0.Add(30*time.Minute), *b.PaymentDeadline)
}
