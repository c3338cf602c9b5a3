package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/courtclub/session-booking/internal/booking"
    "github.com/courtclub/session-booking/internal/model"
)

// BookingHandler serves the booking lifecycle endpoints.  All business rules
// (capacity, pricing, tickets, windows) live in the engine; this layer only
// binds requests and translates sentinel errors.
type BookingHandler struct {
    Lifecycle *booking.Lifecycle
    Store     booking.Store
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(lifecycle *booking.Lifecycle, store booking.Store) *BookingHandler {
    if lifecycle == nil || store == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Lifecycle: lifecycle, Store: store}
}

// Create handles POST /v1/bookings.  The body carries the session, the guest
// count and the chosen payment method.  Pricing and ticket usage are decided
// server side; the response includes the amount owed and, for transfers, the
// payment deadline.
func (h *BookingHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        SessionID     uint64 `json:"session_id"`
        GuestCount    int    `json:"guest_count"`
        PaymentMethod string `json:"payment_method"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.SessionID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
    }
    if body.PaymentMethod == "" {
        body.PaymentMethod = model.PaymentMethodTransfer
    }

    b, err := h.Lifecycle.Create(c.Request().Context(), booking.CreateInput{
        UserID:        userID,
        SessionID:     body.SessionID,
        GuestCount:    body.GuestCount,
        PaymentMethod: body.PaymentMethod,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, bookingView(b))
}

// Cancel handles POST /v1/bookings/:id/cancel.  Only the booking's owner may
// cancel, and only inside the cancellation window for their tier.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Lifecycle.Cancel(c.Request().Context(), bookingID, userID)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bookingView(b))
}

// Get handles GET /v1/bookings/:id.  Members see only their own bookings;
// organizers may inspect any.
func (h *BookingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Store.GetBooking(c.Request().Context(), bookingID)
    if err != nil {
        return engineError(c, err)
    }
    role, _ := c.Get("role").(string)
    if b.UserID != userID && role != model.RoleOrganizer {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, bookingView(b))
}

// ListMine handles GET /v1/bookings and returns the caller's bookings,
// newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Store.ListBookingsByUser(c.Request().Context(), userID)
    if err != nil {
        return engineError(c, err)
    }
    out := make([]echo.Map, 0, len(bookings))
    for _, b := range bookings {
        out = append(out, bookingView(b))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}
