package model

import "time"

// Subscription statuses.
const (
    SubscriptionActive    = "active"
    SubscriptionExpired   = "expired"
    SubscriptionCancelled = "cancelled"
    SubscriptionPastDue   = "past_due"
)

// Subscription is a per-user singleton granting prepaid tickets, waitlist
// priority and early booking access.  TicketsRemaining is the cached balance;
// every change to it goes through the ticket ledger, which appends a
// TicketTransaction in the same transaction.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – owning user (unique).
//  Status           – active, expired, cancelled or past_due.
//  TicketsRemaining – prepaid ticket balance, never negative.
//  PeriodStart      – start of the current renewal period (nullable).
//  PeriodEnd        – end of the current renewal period (nullable).
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Subscription struct {
    ID               uint64     // subscriptions.id
    UserID           uint64     // subscriptions.user_id
    Status           string     // subscriptions.status
    TicketsRemaining int        // subscriptions.tickets_remaining
    PeriodStart      *time.Time // subscriptions.period_start (nullable)
    PeriodEnd        *time.Time // subscriptions.period_end (nullable)
    CreatedAt        time.Time  // subscriptions.created_at
    UpdatedAt        time.Time  // subscriptions.updated_at
}

// IsActive reports whether the subscription currently grants benefits.
func (s *Subscription) IsActive() bool { return s.Status == SubscriptionActive }
