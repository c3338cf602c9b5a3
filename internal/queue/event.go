// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking reaches the confirmed
// state, either at creation (ticket-covered bookings) or when an organizer
// records the payment.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type BookingConfirmedEvent struct {
    EventID         string `json:"event_id"`
    BookingID       uint64 `json:"booking_id"`
    BookingCode     string `json:"booking_code"`
    UserID          uint64 `json:"user_id"`
    SessionID       uint64 `json:"session_id"`
    GuestCount      int    `json:"guest_count"`
    TicketsUsed     int    `json:"tickets_used"`
    DiscountApplied string `json:"discount_applied"`
    TotalCents      int64  `json:"total_cents"`
    PaymentMethod   string `json:"payment_method"`
    ConfirmedAt     string `json:"confirmed_at"`
}

// WaitlistNotifiedEvent is published when the scheduler grants a waiting
// user access to a freed slot.  ExpiresAt bounds the exclusive window;
// after that point the next entry in line may also be unlocked.
type WaitlistNotifiedEvent struct {
    EventID    string `json:"event_id"`
    UserID     uint64 `json:"user_id"`
    SessionID  uint64 `json:"session_id"`
    NotifiedAt string `json:"notified_at"`
    ExpiresAt  string `json:"expires_at"`
}
