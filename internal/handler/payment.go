package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/courtclub/session-booking/internal/booking"
)

// PaymentHandler records externally verified payments.  There is no gateway
// integration; an organizer checks the bank transfer and confirms the
// booking by hand.
type PaymentHandler struct {
    Lifecycle *booking.Lifecycle
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(lifecycle *booking.Lifecycle) *PaymentHandler {
    if lifecycle == nil {
        panic("nil lifecycle passed to NewPaymentHandler")
    }
    return &PaymentHandler{Lifecycle: lifecycle}
}

// Confirm handles POST /v1/bookings/:id/payment/confirm.  Organizers only.
// Confirming an already confirmed booking succeeds without effect; a booking
// past its payment deadline is rejected even if the reaper has not reclaimed
// it yet.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Lifecycle.ConfirmPayment(c.Request().Context(), bookingID)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bookingView(b))
}
