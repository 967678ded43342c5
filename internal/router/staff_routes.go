package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/session-booking/internal/handler"
	"github.com/iliyamo/session-booking/internal/middleware"
)

// RegisterStaff registers door and desk endpoints under /v1/staff.  All
// routes require a valid JWT with the STAFF or ADMIN role.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireStaff(),
	)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id/bookings", h.ListBookings)
	// Walk-in booking by printed card number; skips email verification.
	g.POST("/sessions/:id/bookings", h.WalkIn)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.POST("/sessions/:id/checkin", h.CheckIn)
	g.GET("/sessions/:id/guest-tickets", h.ListGuestTickets)
	g.POST("/sessions/:id/guest-tickets", h.IssueGuestTicket)
	g.GET("/cards", h.ListCards)
}
