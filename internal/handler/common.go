package handler // handler defines http handlers

import (
    "errors"   // errors provides sentinel comparisons against engine errors
    "net/http" // HTTP status codes
    "strconv"  // strconv converts path parameters to numeric types
    "time"     // RFC 3339 formatting of timestamps

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores it as uint64; the other branches tolerate tokens minted by
// older identity service versions.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the named path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// engineError maps engine sentinels onto HTTP responses.  Conflicts that a
// client can resolve by picking another session map to 409, precondition
// failures to 400, and exhausted lock retries to 503 so callers know to back
// off and try again.
func engineError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, booking.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, booking.ErrCapacityExceeded),
        errors.Is(err, booking.ErrDuplicateBooking),
        errors.Is(err, booking.ErrAlreadyTerminal):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrWindowClosed),
        errors.Is(err, booking.ErrSessionCancelled),
        errors.Is(err, booking.ErrSessionStarted),
        errors.Is(err, booking.ErrGuestLimit),
        errors.Is(err, booking.ErrInvalidPaymentMethod),
        errors.Is(err, booking.ErrDeadlinePassed),
        errors.Is(err, booking.ErrTicketUnavailable):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrConcurrentModification):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "please retry"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// bookingView shapes a booking for JSON responses.
func bookingView(b model.Booking) echo.Map {
    m := echo.Map{
        "id":               b.ID,
        "booking_code":     b.BookingCode,
        "session_id":       b.SessionID,
        "user_id":          b.UserID,
        "guest_count":      b.GuestCount,
        "tickets_used":     b.TicketsUsed,
        "discount_applied": b.DiscountApplied,
        "price_cents":      b.PriceCents,
        "guest_price_cents": b.GuestPriceCents,
        "total_cents":      b.TotalCents(),
        "payment_method":   b.PaymentMethod,
        "payment_status":   b.PaymentStatus,
        "created_at":       b.CreatedAt.UTC().Format(time.RFC3339),
    }
    if b.PaymentDeadline != nil {
        m["payment_deadline"] = b.PaymentDeadline.UTC().Format(time.RFC3339)
    }
    if b.CancelledAt != nil {
        m["cancelled_at"] = b.CancelledAt.UTC().Format(time.RFC3339)
    }
    return m
}

// sessionView shapes a session for JSON responses.
func sessionView(s model.Session) echo.Map {
    m := echo.Map{
        "id":              s.ID,
        "organizer_id":    s.OrganizerID,
        "title":           s.Title,
        "starts_at":       s.StartsAt.UTC().Format(time.RFC3339),
        "location":        s.Location,
        "total_slots":     s.TotalSlots,
        "available_slots": s.AvailableSlots,
        "cancelled":       s.Cancelled,
    }
    if s.PriceCents != nil {
        m["price_cents"] = *s.PriceCents
    }
    if s.SubscriberCancelHours != nil {
        m["subscriber_cancel_hours"] = *s.SubscriberCancelHours
    }
    if s.DropInCancelHours != nil {
        m["drop_in_cancel_hours"] = *s.DropInCancelHours
    }
    return m
}
