package model

import "time"

// Waitlist priority tiers.  Subscribers rank ahead of drop-ins; within a
// tier the queue is FIFO by join time.
const (
    WaitlistTierSubscriber = 1
    WaitlistTierDropIn     = 0
)

// WaitlistEntry queues a user for a freed slot on a full session.  The
// scheduler is the only writer of the notification fields; an entry is
// removed on successful booking or explicit leave.
//
// Fields:
//  ID         – primary key identifier.
//  SessionID  – session the user is waiting on.
//  UserID     – waiting user.
//  Priority   – tier snapshot taken at join time (subscriber > drop-in).
//  NotifiedAt – when the scheduler granted access (nullable).
//  CanBook    – whether this entry may currently race for the slot.
//  CreatedAt  – join timestamp; FIFO order within a tier.
type WaitlistEntry struct {
    ID         uint64     // waitlist_entries.id
    SessionID  uint64     // waitlist_entries.session_id
    UserID     uint64     // waitlist_entries.user_id
    Priority   int        // waitlist_entries.priority
    NotifiedAt *time.Time // waitlist_entries.notified_at (nullable)
    CanBook    bool       // waitlist_entries.can_book
    CreatedAt  time.Time  // waitlist_entries.created_at
}
