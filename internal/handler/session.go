package handler

import (
    "net/http" // HTTP status codes
    "time"     // parsing the starts_at field

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
)

// SessionHandler serves organizer session management and public browsing.
// Capacity counters are never written here; available_slots is owned by the
// booking engine and only initialized on insert.
type SessionHandler struct {
    Store booking.Store
    Clock clock.Clock
}

// NewSessionHandler constructs a SessionHandler.  All dependencies must be
// non-nil.
func NewSessionHandler(store booking.Store, clk clock.Clock) *SessionHandler {
    if store == nil || clk == nil {
        panic("nil dependency passed to NewSessionHandler")
    }
    return &SessionHandler{Store: store, Clock: clk}
}

// Create handles POST /v1/sessions.  Organizers only.  The body must carry a
// title, a future RFC 3339 starts_at and a positive total_slots; price and
// cancellation window overrides are optional and fall back to policy values.
func (h *SessionHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Title                 string `json:"title"`
        StartsAt              string `json:"starts_at"`
        Location              string `json:"location"`
        TotalSlots            int    `json:"total_slots"`
        PriceCents            *int64 `json:"price_cents"`
        SubscriberCancelHours *int   `json:"subscriber_cancel_hours"`
        DropInCancelHours     *int   `json:"drop_in_cancel_hours"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    if body.TotalSlots < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be positive"})
    }
    startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC 3339"})
    }
    if !startsAt.After(h.Clock.Now()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
    }
    if body.PriceCents != nil && *body.PriceCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
    }

    s := model.Session{
        OrganizerID:           userID,
        Title:                 body.Title,
        StartsAt:              startsAt.UTC(),
        Location:              body.Location,
        TotalSlots:            body.TotalSlots,
        AvailableSlots:        body.TotalSlots,
        PriceCents:            body.PriceCents,
        SubscriberCancelHours: body.SubscriberCancelHours,
        DropInCancelHours:     body.DropInCancelHours,
    }
    if err := h.Store.InsertSession(c.Request().Context(), &s); err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, sessionView(s))
}

// Cancel handles POST /v1/sessions/:id/cancel.  Only the organizer who
// created the session may cancel it.  Existing bookings are left to their
// holders; their cancellations bypass the time window once the session is
// cancelled.
func (h *SessionHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    sessionID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    ctx := c.Request().Context()
    s, err := h.Store.GetSession(ctx, sessionID)
    if err != nil {
        return engineError(c, err)
    }
    if s.OrganizerID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if s.Cancelled {
        return c.JSON(http.StatusConflict, echo.Map{"error": "session already cancelled"})
    }
    if err := h.Store.CancelSession(ctx, sessionID, h.Clock.Now()); err != nil {
        return engineError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/sessions and returns upcoming sessions that have not
// been cancelled.
func (h *SessionHandler) List(c echo.Context) error {
    sessions, err := h.Store.ListUpcomingSessions(c.Request().Context(), h.Clock.Now())
    if err != nil {
        return engineError(c, err)
    }
    out := make([]echo.Map, 0, len(sessions))
    for _, s := range sessions {
        out = append(out, sessionView(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
    sessionID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    s, err := h.Store.GetSession(c.Request().Context(), sessionID)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, sessionView(s))
}
