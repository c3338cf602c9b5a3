package model

import "time"

// Ticket transaction kinds.  Signed Amount follows the kind: used and
// revoked and expired are negative, the rest positive.
const (
    TicketTxGrant    = "subscription_grant"
    TicketTxUsed     = "used"
    TicketTxRestored = "restored"
    TicketTxBonus    = "bonus"
    TicketTxBirthday = "bonus_birthday"
    TicketTxExpired  = "expired"
    TicketTxRevoked  = "revoked"
)

// TicketTransaction is an append-only audit row for every ticket balance
// change.  Summing a user's transactions in order always equals the current
// balance; BalanceAfter snapshots the balance at append time and is never
// negative.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user whose balance changed.
//  SubscriptionID – subscription the tickets belong to (nullable).
//  BookingID      – booking that consumed or restored the ticket (nullable).
//  Kind           – transaction kind constant above.
//  Amount         – signed ticket delta.
//  BalanceAfter   – balance snapshot after applying Amount.
//  Note           – free-form context for audits (nullable).
//  CreatedAt      – append timestamp.
type TicketTransaction struct {
    ID             uint64    // ticket_transactions.id
    UserID         uint64    // ticket_transactions.user_id
    SubscriptionID *uint64   // ticket_transactions.subscription_id (nullable)
    BookingID      *uint64   // ticket_transactions.booking_id (nullable)
    Kind           string    // ticket_transactions.kind
    Amount         int       // ticket_transactions.amount
    BalanceAfter   int       // ticket_transactions.balance_after
    Note           *string   // ticket_transactions.note (nullable)
    CreatedAt      time.Time // ticket_transactions.created_at
}
