package repository

import (
    "context"
    "database/sql"
    "errors"
    "strconv"

    "github.com/courtclub/session-booking/internal/booking"
)

// LoadPolicy reads the booking policy from the settings key/value table.
// Every key is optional: a missing row or an unparseable value falls back
// to the built-in default, so an empty table yields booking.DefaultPolicy().
func (s *Store) LoadPolicy(ctx context.Context) (booking.Policy, error) {
    p := booking.DefaultPolicy()

    values, err := s.loadSettings(ctx)
    if err != nil {
        return booking.Policy{}, err
    }

    p.PaymentDeadlineMinutes = intSetting(values, "payment_deadline_minutes", p.PaymentDeadlineMinutes)
    p.SubscriberCancelHours = intSetting(values, "subscriber_cancel_hours", p.SubscriberCancelHours)
    p.DropInCancelHours = intSetting(values, "drop_in_cancel_hours", p.DropInCancelHours)
    p.OutOfTicketDiscountPercent = intSetting(values, "out_of_ticket_discount_percent", p.OutOfTicketDiscountPercent)
    p.ExclusiveWindowHours = intSetting(values, "exclusive_window_hours", p.ExclusiveWindowHours)
    p.MaxGuestCount = intSetting(values, "max_guest_count", p.MaxGuestCount)
    p.DefaultPriceCents = int64Setting(values, "default_price_cents", p.DefaultPriceCents)
    p.BirthdayAccountAgeDays = intSetting(values, "birthday_account_age_days", p.BirthdayAccountAgeDays)
    p.BirthdayBonusTickets = intSetting(values, "birthday_bonus_tickets", p.BirthdayBonusTickets)

    return p, nil
}

func (s *Store) loadSettings(ctx context.Context) (map[string]string, error) {
    const q = `SELECT setting_key, setting_value FROM settings`
    rows, err := s.q(ctx).QueryContext(ctx, q)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return map[string]string{}, nil
        }
        return nil, wrap("load settings", err)
    }
    defer rows.Close()

    values := make(map[string]string)
    for rows.Next() {
        var key, value string
        if err := rows.Scan(&key, &value); err != nil {
            return nil, wrap("load settings", err)
        }
        values[key] = value
    }
    if err := rows.Err(); err != nil {
        return nil, wrap("load settings", err)
    }
    return values, nil
}

func intSetting(values map[string]string, key string, fallback int) int {
    raw, ok := values[key]
    if !ok {
        return fallback
    }
    n, err := strconv.Atoi(raw)
    if err != nil {
        return fallback
    }
    return n
}

func int64Setting(values map[string]string, key string, fallback int64) int64 {
    raw, ok := values[key]
    if !ok {
        return fallback
    }
    n, err := strconv.ParseInt(raw, 10, 64)
    if err != nil {
        return fallback
    }
    return n
}
