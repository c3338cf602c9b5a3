package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/courtclub/session-booking/internal/booking"
)

// WaitlistHandler lets users queue for full sessions and leave the queue.
type WaitlistHandler struct {
    Waitlist *booking.Waitlist
}

// NewWaitlistHandler constructs a WaitlistHandler.
func NewWaitlistHandler(wl *booking.Waitlist) *WaitlistHandler {
    if wl == nil {
        panic("nil waitlist passed to NewWaitlistHandler")
    }
    return &WaitlistHandler{Waitlist: wl}
}

// Join handles POST /v1/sessions/:id/waitlist.  Joining twice is a no-op
// that returns the existing entry with its original position.
func (h *WaitlistHandler) Join(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    entry, err := h.Waitlist.Join(c.Request().Context(), sessionID, userID)
    if err != nil {
        return engineError(c, err)
    }
    resp := echo.Map{
        "session_id": entry.SessionID,
        "user_id":    entry.UserID,
        "priority":   entry.Priority,
        "can_book":   entry.CanBook,
        "joined_at":  entry.CreatedAt.UTC().Format(time.RFC3339),
    }
    if entry.NotifiedAt != nil {
        resp["notified_at"] = entry.NotifiedAt.UTC().Format(time.RFC3339)
    }
    return c.JSON(http.StatusCreated, resp)
}

// Leave handles DELETE /v1/sessions/:id/waitlist.
func (h *WaitlistHandler) Leave(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    if err := h.Waitlist.Leave(c.Request().Context(), sessionID, userID); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
