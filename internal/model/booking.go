package model

import "time"

// Payment statuses for a booking.  A booking is terminal once CancelledAt is
// set or the status can no longer change (confirmed stays confirmed until an
// explicit cancellation refunds it).
const (
    PaymentStatusPending   = "pending"
    PaymentStatusConfirmed = "confirmed"
    PaymentStatusFailed    = "failed"
    PaymentStatusRefunded  = "refunded"
)

// Payment methods.  Transfer payments carry a deadline; ticket-covered
// bookings confirm immediately and never get one.
const (
    PaymentMethodTransfer = "transfer"
    PaymentMethodCash     = "cash"
    PaymentMethodTicket   = "ticket"
)

// Booking reserves 1 + GuestCount slots on a session for a user.  The slot
// consumption is decremented from the session atomically at creation time and
// returned exactly once when the booking is cancelled or expired.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the booking.
//  SessionID       – session being booked.
//  BookingCode     – short human-facing reference (SB-XXXXX).
//  GuestCount      – number of guests (0–3); each guest consumes one slot at full price.
//  TicketsUsed     – 0 or 1; only the primary user may spend a ticket.
//  DiscountApplied – pricing branch taken: "ticket", "out_of_ticket" or "none".
//  PriceCents      – amount charged for the user's own slot.
//  GuestPriceCents – amount charged for all guest slots combined.
//  PaymentMethod   – transfer, cash or ticket.
//  PaymentStatus   – pending, confirmed, failed or refunded.
//  PaymentDeadline – bound on pending transfer payments (nullable).
//  CancelledAt     – terminal marker; set by cancel and expire (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
    ID              uint64     // bookings.id
    UserID          uint64     // bookings.user_id
    SessionID       uint64     // bookings.session_id
    BookingCode     string     // bookings.booking_code
    GuestCount      int        // bookings.guest_count
    TicketsUsed     int        // bookings.tickets_used
    DiscountApplied string     // bookings.discount_applied
    PriceCents      int64      // bookings.price_cents
    GuestPriceCents int64      // bookings.guest_price_cents
    PaymentMethod   string     // bookings.payment_method
    PaymentStatus   string     // bookings.payment_status
    PaymentDeadline *time.Time // bookings.payment_deadline (nullable)
    CancelledAt     *time.Time // bookings.cancelled_at (nullable)
    CreatedAt       time.Time  // bookings.created_at
    UpdatedAt       time.Time  // bookings.updated_at
}

// Slots returns the number of session slots this booking consumes.
func (b *Booking) Slots() int { return 1 + b.GuestCount }

// TotalCents returns the full amount owed for the booking.
func (b *Booking) TotalCents() int64 { return b.PriceCents + b.GuestPriceCents }

// Terminal reports whether the booking can no longer change state through
// create/expire paths.  Cancelled and expired bookings are terminal; a
// confirmed booking is terminal for the reaper but may still be cancelled
// inside the cancellation window.
func (b *Booking) Terminal() bool {
    return b.CancelledAt != nil
}
