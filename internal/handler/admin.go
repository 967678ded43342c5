package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
	"github.com/iliyamo/session-booking/internal/middleware"
)

// AdminHandler serves schedule and card management.  Every route requires
// an ADMIN token.
type AdminHandler struct {
	Engine *booking.Engine
	Log    zerolog.Logger
}

// NewAdminHandler constructs an AdminHandler and panics if the engine is nil.
func NewAdminHandler(eng *booking.Engine, log zerolog.Logger) *AdminHandler {
	if eng == nil {
		panic("nil engine passed to NewAdminHandler")
	}
	return &AdminHandler{Engine: eng, Log: log}
}

type sessionRequest struct {
	Title             string `json:"title" validate:"required,max=200"`
	Date              string `json:"date" validate:"required,isodate"`
	StartTime         string `json:"start_time" validate:"required,hhmm"`
	EndTime           string `json:"end_time" validate:"required,hhmm"`
	ConfirmedCapacity int    `json:"confirmed_capacity" validate:"gte=1"`
	WaitlistCapacity  int    `json:"waitlist_capacity" validate:"gte=0"`
	GuestCapacity     int    `json:"guest_capacity" validate:"gte=0"`
	Published         bool   `json:"published"`
}

func (r sessionRequest) input() booking.SessionInput {
	return booking.SessionInput{
		Title:             r.Title,
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		ConfirmedCapacity: r.ConfirmedCapacity,
		WaitlistCapacity:  r.WaitlistCapacity,
		GuestCapacity:     r.GuestCapacity,
		Published:         r.Published,
	}
}

type lockRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// CreateSession schedules a new session.
func (h *AdminHandler) CreateSession(c echo.Context) error {
	var req sessionRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	s, err := h.Engine.Catalog.Create(c.Request().Context(), req.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Uint64("session_id", s.ID).Str("staff", middleware.StaffName(c)).Msg("session created")
	return c.JSON(http.StatusCreated, s)
}

// UpdateSession edits a session.  Once bookings exist the schedule and
// capacities are locked unless ?override=true is passed.
func (h *AdminHandler) UpdateSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req sessionRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	override, _ := strconv.ParseBool(c.QueryParam("override"))
	s, err := h.Engine.Catalog.Update(c.Request().Context(), id, req.input(), override)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Publish makes a session visible and bookable.
func (h *AdminHandler) Publish(c echo.Context) error { return h.setPublished(c, true) }

// Unpublish hides a session from the public listing.
func (h *AdminHandler) Unpublish(c echo.Context) error { return h.setPublished(c, false) }

func (h *AdminHandler) setPublished(c echo.Context, published bool) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	s, err := h.Engine.Catalog.SetPublished(c.Request().Context(), id, published)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// CancelSession flags a session cancelled.  Bookings are kept.
func (h *AdminHandler) CancelSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	s, err := h.Engine.Catalog.Cancel(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info().Uint64("session_id", id).Str("staff", middleware.StaffName(c)).Msg("session cancelled")
	return c.JSON(http.StatusOK, s)
}

// ResetSession closes a session immediately, marking every open booking a
// no-show.
func (h *AdminHandler) ResetSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	rep, err := h.Engine.Reconciler.Reset(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// LockCard locks a card with an optional reason.
func (h *AdminHandler) LockCard(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req lockRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	reason := req.Reason
	if reason == "" {
		reason = "locked by " + middleware.StaffName(c)
	}
	card, err := h.Engine.Registry.Lock(c.Request().Context(), id, reason)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, card)
}

// UnlockCard reactivates a card and clears its penalties.
func (h *AdminHandler) UnlockCard(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	card, err := h.Engine.Registry.Unlock(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, card)
}
