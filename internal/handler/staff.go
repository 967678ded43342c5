package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
	"github.com/iliyamo/session-booking/internal/middleware"
)

// StaffHandler serves door and desk staff.  Every route requires a STAFF
// or ADMIN token.
type StaffHandler struct {
	Engine *booking.Engine
	Log    zerolog.Logger
}

// NewStaffHandler constructs a StaffHandler and panics if the engine is nil.
func NewStaffHandler(eng *booking.Engine, log zerolog.Logger) *StaffHandler {
	if eng == nil {
		panic("nil engine passed to NewStaffHandler")
	}
	return &StaffHandler{Engine: eng, Log: log}
}

type walkInRequest struct {
	CardNumber int    `json:"card_number" validate:"required,min=1"`
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
}

type checkInRequest struct {
	Value string `json:"value" validate:"required,max=512"`
}

type guestRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Contact     string `json:"contact" validate:"omitempty,max=200"`
	AllocatedBy string `json:"allocated_by" validate:"omitempty,max=100"`
}

// ListSessions returns every session, including drafts and past ones.
func (h *StaffHandler) ListSessions(c echo.Context) error {
	items, err := h.Engine.Catalog.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListBookings returns the bookings of a session in waitlist order.
func (h *StaffHandler) ListBookings(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	items, err := h.Engine.Catalog.Bookings(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// WalkIn books a card by its printed number without email verification.
func (h *StaffHandler) WalkIn(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req walkInRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	out, err := h.Engine.Allocator.AllocateByNumber(c.Request().Context(), id, req.CardNumber, booking.Requester{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Uint64("session_id", id).Uint64("booking_id", out.BookingID).
		Str("staff", middleware.StaffName(c)).Msg("walk-in booking")
	return c.JSON(http.StatusCreated, out)
}

// CancelBooking cancels a booking by ID and promotes the waitlist.
func (h *StaffHandler) CancelBooking(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	res, err := h.Engine.Promoter.CancelByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CheckIn admits a card number or guest ticket at the door.
func (h *StaffHandler) CheckIn(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req checkInRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	res, err := h.Engine.Checkpoint.CheckIn(c.Request().Context(), id, req.Value, middleware.StaffName(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListGuestTickets returns the guest tickets of a session.
func (h *StaffHandler) ListGuestTickets(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	items, err := h.Engine.Guests.List(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// IssueGuestTicket hands out a ticket from the session's guest pool.
// AllocatedBy defaults to the staff member issuing it.
func (h *StaffHandler) IssueGuestTicket(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req guestRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.AllocatedBy == "" {
		req.AllocatedBy = middleware.StaffName(c)
	}
	t, err := h.Engine.Guests.Issue(c.Request().Context(), id, booking.GuestRequest{
		Name:        req.Name,
		Contact:     req.Contact,
		AllocatedBy: req.AllocatedBy,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// ListCards returns the whole card pool.
func (h *StaffHandler) ListCards(c echo.Context) error {
	items, err := h.Engine.Registry.List(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
