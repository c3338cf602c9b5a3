// Package booking implements the session capacity and booking lifecycle
// engine: the capacity ledger, the ticket ledger, the booking state machine,
// the payment deadline reaper and the waitlist scheduler.  All state lives in
// the relational store; every mutating operation runs inside a single
// transaction with the session row locked first.
package booking

import "errors"

// Sentinel errors returned by the engine.  Handlers translate these into
// HTTP status codes; the background sweeps log and skip them per item.
var (
    // ErrCapacityExceeded means the session does not have enough free slots
    // for the requested booking.  User-facing, not retried.
    ErrCapacityExceeded = errors.New("not enough slots available")

    // ErrTicketUnavailable means the subscription balance cannot cover a
    // debit.  The create path treats it as a pricing fallback, not a failure.
    ErrTicketUnavailable = errors.New("insufficient ticket balance")

    // ErrAlreadyTerminal means the booking was already cancelled or expired.
    // Callers racing the reaper treat this as success-as-no-op.
    ErrAlreadyTerminal = errors.New("booking already terminal")

    // ErrWindowClosed means the cancellation deadline has passed.
    ErrWindowClosed = errors.New("cancellation window closed")

    // ErrConcurrentModification is a lock wait timeout or deadlock surfaced
    // by the store.  The engine retries a bounded number of times before
    // returning it to the caller.
    ErrConcurrentModification = errors.New("concurrent modification")

    // ErrNotFound means the referenced session, booking or entry does not exist.
    ErrNotFound = errors.New("not found")

    // ErrSessionCancelled means the session was soft-cancelled by its organizer.
    ErrSessionCancelled = errors.New("session is cancelled")

    // ErrSessionStarted means the session is already in the past.
    ErrSessionStarted = errors.New("session has already started")

    // ErrDuplicateBooking means the user already holds an active booking for
    // the session.
    ErrDuplicateBooking = errors.New("active booking already exists for this session")

    // ErrGuestLimit means the requested guest count is outside policy bounds.
    ErrGuestLimit = errors.New("guest count exceeds the allowed maximum")

    // ErrInvalidPaymentMethod means the requested payment method is not one
    // a user may choose at creation time.
    ErrInvalidPaymentMethod = errors.New("invalid payment method")

    // ErrForbidden means the caller does not own the target resource.
    ErrForbidden = errors.New("forbidden")

    // ErrDeadlinePassed means a payment confirmation arrived after the
    // booking's payment deadline.
    ErrDeadlinePassed = errors.New("payment deadline has passed")
)
