package booking

import (
    "context"
    "errors"
    "time"

    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
    "github.com/courtclub/session-booking/internal/utils"
)

// Lifecycle owns the booking state machine.  It is the only writer of
// booking rows and the only caller of the capacity and ticket ledgers; every
// transition runs in one transaction with the session row locked first, then
// the subscription row, then the booking row.  Lock waits surface as
// ErrConcurrentModification and are retried a bounded number of times.
type Lifecycle struct {
    store    Store
    capacity *CapacityLedger
    tickets  *TicketLedger
    policies PolicySource
    clock    clock.Clock
    events   EventPublisher // optional
    log      zerolog.Logger
}

// NewLifecycle wires the booking state machine.  events may be nil when no
// broker is configured.
func NewLifecycle(store Store, policies PolicySource, clk clock.Clock, events EventPublisher, log zerolog.Logger) *Lifecycle {
    return &Lifecycle{
        store:    store,
        capacity: NewCapacityLedger(store, log),
        tickets:  NewTicketLedger(store, log),
        policies: policies,
        clock:    clk,
        events:   events,
        log:      log,
    }
}

// CreateInput carries a booking request into the lifecycle.
type CreateInput struct {
    UserID        uint64
    SessionID     uint64
    GuestCount    int
    PaymentMethod string
}

// Create books 1 + GuestCount slots on a session.  Within one transaction it
// locks the session row, reserves capacity, prices the booking (spending a
// ticket when the user is a subscriber with balance), inserts the booking
// and resolves the user's waitlist entry.  Ticket-covered bookings confirm
// immediately; any booking with an amount left to pay gets a payment
// deadline so unpaid holds cannot pin slots forever.
//
// Guest slots are always charged the full session price regardless of the
// payer's subscription, ticket or discount state.
func (lf *Lifecycle) Create(ctx context.Context, in CreateInput) (model.Booking, error) {
    pol, err := lf.policies.LoadPolicy(ctx)
    if err != nil {
        return model.Booking{}, err
    }
    if in.GuestCount < 0 || in.GuestCount > pol.MaxGuestCount {
        return model.Booking{}, ErrGuestLimit
    }
    switch in.PaymentMethod {
    case model.PaymentMethodTransfer, model.PaymentMethodCash:
    default:
        return model.Booking{}, ErrInvalidPaymentMethod
    }

    var b model.Booking
    err = retryOnContention(ctx, func(ctx context.Context) error {
        b = model.Booking{}
        return lf.store.WithTx(ctx, func(ctx context.Context) error {
            now := lf.clock.Now()

            // Session row first; holding this lock serializes every
            // capacity decision for the session until commit.
            sess, err := lf.store.GetSessionForUpdate(ctx, in.SessionID)
            if err != nil {
                return err
            }
            if sess.Cancelled {
                return ErrSessionCancelled
            }
            if !sess.StartsAt.After(now) {
                return ErrSessionStarted
            }
            dup, err := lf.store.HasActiveBooking(ctx, in.UserID, in.SessionID)
            if err != nil {
                return err
            }
            if dup {
                return ErrDuplicateBooking
            }

            slots := 1 + in.GuestCount
            if err := lf.capacity.Reserve(ctx, sess.ID, slots); err != nil {
                return err
            }

            base := pol.DefaultPriceCents
            if sess.PriceCents != nil {
                base = *sess.PriceCents
            }

            ticketsUsed := 0
            discount := "none"
            userPrice := base
            sub, err := lf.store.GetActiveSubscriptionForUpdate(ctx, in.UserID)
            switch {
            case err == nil && sub.TicketsRemaining > 0:
                ticketsUsed = 1
                discount = "ticket"
                userPrice = 0
            case err == nil:
                discount = "out_of_ticket"
                userPrice = base * int64(100-pol.OutOfTicketDiscountPercent) / 100
            case errors.Is(err, ErrNotFound):
                // drop-in, full price
            default:
                return err
            }

            guestPrice := base * int64(in.GuestCount)
            total := userPrice + guestPrice

            b = model.Booking{
                UserID:          in.UserID,
                SessionID:       in.SessionID,
                BookingCode:     utils.NewBookingCode(),
                GuestCount:      in.GuestCount,
                TicketsUsed:     ticketsUsed,
                DiscountApplied: discount,
                PriceCents:      userPrice,
                GuestPriceCents: guestPrice,
                PaymentMethod:   in.PaymentMethod,
                PaymentStatus:   model.PaymentStatusPending,
            }
            if total == 0 {
                // Fully covered by the ticket; nothing left to pay.
                b.PaymentMethod = model.PaymentMethodTicket
                b.PaymentStatus = model.PaymentStatusConfirmed
            } else {
                // Anything unpaid holds slots only for the deadline
                // window, cash at the desk included.
                deadline := now.Add(time.Duration(pol.PaymentDeadlineMinutes) * time.Minute)
                b.PaymentDeadline = &deadline
            }
            if err := lf.store.InsertBooking(ctx, &b); err != nil {
                return err
            }
            if ticketsUsed == 1 {
                if _, err := lf.tickets.Debit(ctx, in.UserID, b.ID); err != nil {
                    return err
                }
            }

            // Waitlist resolution: a successful booking removes the winner's
            // entry and resets everyone else's notification state, closing
            // the current opening.  The race itself was settled by Reserve.
            _, err = lf.store.GetWaitlistEntry(ctx, in.SessionID, in.UserID)
            switch {
            case err == nil:
                if err := lf.store.DeleteWaitlistEntry(ctx, in.SessionID, in.UserID); err != nil {
                    return err
                }
                if err := lf.store.ResetWaitlistNotifications(ctx, in.SessionID); err != nil {
                    return err
                }
            case errors.Is(err, ErrNotFound):
            default:
                return err
            }
            return nil
        })
    })
    if err != nil {
        return model.Booking{}, err
    }

    lf.log.Info().
        Uint64("booking_id", b.ID).
        Str("booking_code", b.BookingCode).
        Uint64("session_id", b.SessionID).
        Int("slots", b.Slots()).
        Int64("total_cents", b.TotalCents()).
        Str("payment_status", b.PaymentStatus).
        Msg("booking created")
    if b.PaymentStatus == model.PaymentStatusConfirmed {
        lf.publishConfirmed(ctx, b)
    }
    return b, nil
}

// Cancel voids a booking before the cancellation deadline, returning its
// slots and any spent ticket.  The deadline depends on whether the user is a
// subscriber and on per-session overrides.  Racing the reaper is safe: the
// loser of the race observes the terminal marker and gets ErrAlreadyTerminal.
func (lf *Lifecycle) Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
    pol, err := lf.policies.LoadPolicy(ctx)
    if err != nil {
        return model.Booking{}, err
    }
    var b model.Booking
    err = retryOnContention(ctx, func(ctx context.Context) error {
        return lf.store.WithTx(ctx, func(ctx context.Context) error {
            now := lf.clock.Now()

            // Plain read to learn the session, then lock in fixed order:
            // session row before the booking row.
            probe, err := lf.store.GetBooking(ctx, bookingID)
            if err != nil {
                return err
            }
            if probe.UserID != userID {
                return ErrForbidden
            }
            sess, err := lf.store.GetSessionForUpdate(ctx, probe.SessionID)
            if err != nil {
                return err
            }
            b, err = lf.store.GetBookingForUpdate(ctx, bookingID)
            if err != nil {
                return err
            }
            if b.Terminal() {
                return ErrAlreadyTerminal
            }

            // An organizer cancelling the whole session voids the window;
            // holders may always back out of a cancelled session.
            if !sess.Cancelled {
                hours := pol.DropInCancelHours
                if sess.DropInCancelHours != nil {
                    hours = *sess.DropInCancelHours
                }
                if _, err := lf.store.GetActiveSubscription(ctx, userID); err == nil {
                    hours = pol.SubscriberCancelHours
                    if sess.SubscriberCancelHours != nil {
                        hours = *sess.SubscriberCancelHours
                    }
                } else if !errors.Is(err, ErrNotFound) {
                    return err
                }
                deadline := sess.StartsAt.Add(-time.Duration(hours) * time.Hour)
                if now.After(deadline) {
                    return ErrWindowClosed
                }
            }

            if err := lf.releaseAndRestore(ctx, &b); err != nil {
                return err
            }
            status := b.PaymentStatus
            if status == model.PaymentStatusConfirmed {
                // The actual refund is the payment gateway's job.
                status = model.PaymentStatusRefunded
            }
            if err := lf.store.FinalizeBooking(ctx, b.ID, status, now); err != nil {
                return err
            }
            b.PaymentStatus = status
            b.CancelledAt = &now
            return nil
        })
    })
    if err != nil {
        return model.Booking{}, err
    }
    lf.log.Info().
        Uint64("booking_id", b.ID).
        Str("booking_code", b.BookingCode).
        Int("slots_returned", b.Slots()).
        Msg("booking cancelled")
    return b, nil
}

// Expire reclaims a pending booking whose payment deadline has passed.  Only
// the reaper calls it.  Re-running it on an already terminal or already paid
// booking is a no-op returning false, so the sweep can retry after partial
// failures without double-releasing slots or double-crediting tickets.
func (lf *Lifecycle) Expire(ctx context.Context, bookingID uint64) (bool, error) {
    expired := false
    err := retryOnContention(ctx, func(ctx context.Context) error {
        expired = false
        return lf.store.WithTx(ctx, func(ctx context.Context) error {
            now := lf.clock.Now()
            probe, err := lf.store.GetBooking(ctx, bookingID)
            if err != nil {
                return err
            }
            if _, err := lf.store.GetSessionForUpdate(ctx, probe.SessionID); err != nil {
                return err
            }
            b, err := lf.store.GetBookingForUpdate(ctx, bookingID)
            if err != nil {
                return err
            }
            if b.Terminal() || b.PaymentStatus != model.PaymentStatusPending {
                return nil
            }
            if b.PaymentDeadline == nil || !now.After(*b.PaymentDeadline) {
                return nil
            }
            if err := lf.releaseAndRestore(ctx, &b); err != nil {
                return err
            }
            if err := lf.store.FinalizeBooking(ctx, b.ID, model.PaymentStatusFailed, now); err != nil {
                return err
            }
            expired = true
            return nil
        })
    })
    return expired, err
}

// ConfirmPayment applies the external gateway's pending -> confirmed edge.
// Preconditions: the booking is still pending, not cancelled and not past
// its payment deadline.  Confirming an already confirmed booking is a no-op
// and does not re-emit the confirmation event.
func (lf *Lifecycle) ConfirmPayment(ctx context.Context, bookingID uint64) (model.Booking, error) {
    var b model.Booking
    transitioned := false
    err := retryOnContention(ctx, func(ctx context.Context) error {
        transitioned = false
        return lf.store.WithTx(ctx, func(ctx context.Context) error {
            now := lf.clock.Now()
            probe, err := lf.store.GetBooking(ctx, bookingID)
            if err != nil {
                return err
            }
            if _, err := lf.store.GetSessionForUpdate(ctx, probe.SessionID); err != nil {
                return err
            }
            b, err = lf.store.GetBookingForUpdate(ctx, bookingID)
            if err != nil {
                return err
            }
            if b.Terminal() {
                return ErrAlreadyTerminal
            }
            if b.PaymentStatus == model.PaymentStatusConfirmed {
                return nil
            }
            if b.PaymentStatus != model.PaymentStatusPending {
                return ErrAlreadyTerminal
            }
            if b.PaymentDeadline != nil && now.After(*b.PaymentDeadline) {
                return ErrDeadlinePassed
            }
            if err := lf.store.SetPaymentStatus(ctx, b.ID, model.PaymentStatusConfirmed); err != nil {
                return err
            }
            b.PaymentStatus = model.PaymentStatusConfirmed
            transitioned = true
            return nil
        })
    })
    if err != nil {
        return model.Booking{}, err
    }
    if transitioned {
        lf.publishConfirmed(ctx, b)
    }
    return b, nil
}

// releaseAndRestore applies the shared effects of cancel and expire: return
// the booking's slots to the session and restore a spent ticket.  Callers
// hold the session lock and have verified the booking is not yet terminal,
// which is what makes the restore happen at most once per booking.
func (lf *Lifecycle) releaseAndRestore(ctx context.Context, b *model.Booking) error {
    if err := lf.capacity.Release(ctx, b.SessionID, b.Slots()); err != nil {
        return err
    }
    if b.TicketsUsed == 1 {
        _, err := lf.tickets.Credit(ctx, b.UserID, 1, model.TicketTxRestored, &b.ID, "restored from cancelled booking")
        if err != nil && !errors.Is(err, ErrNotFound) {
            return err
        }
        if errors.Is(err, ErrNotFound) {
            // Subscription row gone entirely; never expected, keep the
            // cancellation but make the missing restore visible.
            lf.log.Error().
                Uint64("booking_id", b.ID).
                Uint64("user_id", b.UserID).
                Msg("ticket restore skipped: subscription not found")
        }
    }
    return nil
}

func (lf *Lifecycle) publishConfirmed(ctx context.Context, b model.Booking) {
    if lf.events == nil {
        return
    }
    if err := lf.events.BookingConfirmed(ctx, b); err != nil {
        lf.log.Error().Err(err).Uint64("booking_id", b.ID).Msg("publish booking.confirmed failed")
    }
}
