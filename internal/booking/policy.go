package booking

import "context"

// Policy is an immutable snapshot of the tunable booking rules.  It is
// loaded from the settings table once per request or background tick and
// passed through the engine explicitly, so a mid-flight settings change can
// never produce a half-old, half-new decision.
type Policy struct {
    PaymentDeadlineMinutes     int   // window for pending transfer payments
    SubscriberCancelHours      int   // default cancellation window for subscribers
    DropInCancelHours          int   // default cancellation window for drop-ins
    OutOfTicketDiscountPercent int   // discount on the own slot for subscribers without tickets
    ExclusiveWindowHours       int   // waitlist exclusive access window per entry
    MaxGuestCount              int   // upper bound on guests per booking
    DefaultPriceCents          int64 // slot price when the session has no override
    BirthdayAccountAgeDays     int   // minimum account age for the birthday bonus
    BirthdayBonusTickets       int   // tickets granted per birthday
}

// DefaultPolicy returns the built-in values used when a settings key is
// missing or unparseable.
func DefaultPolicy() Policy {
    return Policy{
        PaymentDeadlineMinutes:     30,
        SubscriberCancelHours:      24,
        DropInCancelHours:          48,
        OutOfTicketDiscountPercent: 10,
        ExclusiveWindowHours:       2,
        MaxGuestCount:              3,
        DefaultPriceCents:          100000,
        BirthdayAccountAgeDays:     30,
        BirthdayBonusTickets:       1,
    }
}

// StaticPolicy is a PolicySource returning a fixed snapshot.  Useful for
// tests and for running without a settings table.
type StaticPolicy struct {
    Policy Policy
}

// LoadPolicy implements PolicySource.
func (s StaticPolicy) LoadPolicy(ctx context.Context) (Policy, error) {
    return s.Policy, nil
}
