package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/courtclub/session-booking/internal/handler"    // import the handlers that implement business logic
    "github.com/courtclub/session-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
    "github.com/courtclub/session-booking/internal/model"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
    Session  *handler.SessionHandler
    Booking  *handler.BookingHandler
    Payment  *handler.PaymentHandler
    Waitlist *handler.WaitlistHandler
    Ticket   *handler.TicketHandler
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes the health check and the
// public session browse endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers) {
    // Load balancers and monitoring systems use this to verify the service
    // is up.
    e.GET("/healthz", handler.Health)

    // Guests may browse upcoming sessions before authenticating.
    e.GET("/v1/sessions", h.Session.List)
    e.GET("/v1/sessions/:id", h.Session.Get)
}

// RegisterMember registers endpoints available to every authenticated user
// under /v1.  Members and organizers both pass; guests are rejected by the
// JWT middleware.
func RegisterMember(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleMember, model.RoleOrganizer),
    )

    // ---- Bookings ----
    g.POST("/bookings", h.Booking.Create)
    g.GET("/bookings", h.Booking.ListMine)
    g.GET("/bookings/:id", h.Booking.Get)
    g.POST("/bookings/:id/cancel", h.Booking.Cancel)

    // ---- Waitlist ----
    g.POST("/sessions/:id/waitlist", h.Waitlist.Join)
    g.DELETE("/sessions/:id/waitlist", h.Waitlist.Leave)

    // ---- Tickets ----
    g.GET("/tickets/transactions", h.Ticket.History)
}

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1.
// All routes require a valid JWT and ORGANIZER role.
func RegisterOrganizer(e *echo.Echo, h Handlers, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleOrganizer),
    )

    // ---- Sessions ----
    g.POST("/sessions", h.Session.Create)
    g.POST("/sessions/:id/cancel", h.Session.Cancel)

    // ---- Payments ----
    g.POST("/bookings/:id/payment/confirm", h.Payment.Confirm)

    // ---- Tickets ----
    g.POST("/tickets/grant", h.Ticket.Grant)
}
