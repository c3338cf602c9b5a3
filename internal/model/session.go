package model

import "time"

// Session statuses are not an enum column; a session is either live or
// soft-cancelled via the Cancelled flag.  Sessions are never deleted while
// bookings reference them.

// Session represents a scheduled event with a fixed slot capacity.
// Capacity is a pair of counters on the row itself: TotalSlots is set at
// creation and never changes, AvailableSlots is mutated only by the
// capacity ledger under a row lock.
//
// Fields:
//  ID                  – primary key identifier.
//  OrganizerID         – user who created the session.
//  Title               – human readable name of the session.
//  StartsAt            – when the session begins.
//  Location            – where the session takes place.
//  TotalSlots          – fixed capacity in slots.
//  AvailableSlots      – remaining slots; 0 <= AvailableSlots <= TotalSlots.
//  PriceCents          – price per slot; nil means the policy default applies.
//  SubscriberCancelHours – per-session override of the subscriber cancellation window.
//  DropInCancelHours   – per-session override of the drop-in cancellation window.
//  Cancelled           – soft-cancel flag.
//  CancelledAt         – when the session was cancelled (nullable).
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Session struct {
    ID                    uint64     // sessions.id
    OrganizerID           uint64     // sessions.organizer_id
    Title                 string     // sessions.title
    StartsAt              time.Time  // sessions.starts_at
    Location              string     // sessions.location
    TotalSlots            int        // sessions.total_slots
    AvailableSlots        int        // sessions.available_slots
    PriceCents            *int64     // sessions.price_cents (nullable)
    SubscriberCancelHours *int       // sessions.subscriber_cancel_hours (nullable)
    DropInCancelHours     *int       // sessions.drop_in_cancel_hours (nullable)
    Cancelled             bool       // sessions.cancelled
    CancelledAt           *time.Time // sessions.cancelled_at (nullable)
    CreatedAt             time.Time  // sessions.created_at
    UpdatedAt             time.Time  // sessions.updated_at
}
