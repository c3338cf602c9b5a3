package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/model"
)

// TicketHandler exposes organizer-side ticket administration.  Booking
// debits and restores never pass through here; they are side effects of the
// lifecycle.
type TicketHandler struct {
    Store  booking.Store
    Ledger *booking.TicketLedger
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(store booking.Store, ledger *booking.TicketLedger) *TicketHandler {
    if store == nil || ledger == nil {
        panic("nil dependency passed to NewTicketHandler")
    }
    return &TicketHandler{Store: store, Ledger: ledger}
}

// Grant handles POST /v1/tickets/grant.  Organizers only.  It credits
// tickets onto a user's subscription, defaulting to a bonus grant; monthly
// renewal grants pass kind "subscription_grant".
func (h *TicketHandler) Grant(c echo.Context) error {
    var body struct {
        UserID uint64 `json:"user_id"`
        Amount int    `json:"amount"`
        Kind   string `json:"kind"`
        Note   string `json:"note"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.UserID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
    }
    if body.Amount < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
    }
    kind := body.Kind
    if kind == "" {
        kind = model.TicketTxBonus
    }
    switch kind {
    case model.TicketTxBonus, model.TicketTxGrant:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid grant kind"})
    }

    var balance int
    err := h.Store.WithTx(c.Request().Context(), func(ctx context.Context) error {
        b, err := h.Ledger.Credit(ctx, body.UserID, body.Amount, kind, nil, body.Note)
        if err != nil {
            return err
        }
        balance = b
        return nil
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":           body.UserID,
        "granted":           body.Amount,
        "tickets_remaining": balance,
    })
}

// History handles GET /v1/tickets/transactions and returns the caller's
// ticket balance with the full audit trail, oldest first.
func (h *TicketHandler) History(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()

    balance := 0
    sub, err := h.Store.GetActiveSubscription(ctx, userID)
    switch {
    case err == nil:
        balance = sub.TicketsRemaining
    case errors.Is(err, booking.ErrNotFound):
    default:
        return engineError(c, err)
    }

    txs, err := h.Store.ListTicketTransactions(ctx, userID)
    if err != nil {
        return engineError(c, err)
    }
    out := make([]echo.Map, 0, len(txs))
    for _, tx := range txs {
        m := echo.Map{
            "id":            tx.ID,
            "kind":          tx.Kind,
            "amount":        tx.Amount,
            "balance_after": tx.BalanceAfter,
            "created_at":    tx.CreatedAt.UTC().Format(time.RFC3339),
        }
        if tx.BookingID != nil {
            m["booking_id"] = *tx.BookingID
        }
        if tx.Note != nil {
            m["note"] = *tx.Note
        }
        out = append(out, m)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "tickets_remaining": balance,
        "transactions":      out,
    })
}
