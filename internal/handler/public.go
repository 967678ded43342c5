// Package handler exposes the HTTP handlers of the booking service.  This
// file holds the unauthenticated routes: browsing sessions, the two-step
// email verified booking flow, self-service cancellation and card status.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
	"github.com/iliyamo/session-booking/internal/middleware"
	"github.com/iliyamo/session-booking/internal/model"
)

// PublicHandler serves requesters without a staff token.
type PublicHandler struct {
	Engine *booking.Engine
	Log    zerolog.Logger
}

// NewPublicHandler constructs a PublicHandler and panics if the engine is nil.
func NewPublicHandler(eng *booking.Engine, log zerolog.Logger) *PublicHandler {
	if eng == nil {
		panic("nil engine passed to NewPublicHandler")
	}
	return &PublicHandler{Engine: eng, Log: log}
}

type challengeRequest struct {
	CardCode string `json:"card_code" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
}

type redeemRequest struct {
	Code string `json:"code" validate:"required,otp"`
}

type cancelRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

// PublicCard is the status a card holder may see.  The booking code and
// staff notes are never exposed.
type PublicCard struct {
	Number         int              `json:"number"`
	Status         model.CardStatus `json:"status"`
	Bookable       bool             `json:"bookable"`
	SuspendedUntil *time.Time       `json:"suspended_until,omitempty"`
}

// ListSessions returns published upcoming sessions with live occupancy.
func (h *PublicHandler) ListSessions(c echo.Context) error {
	items, err := h.Engine.Catalog.ListUpcoming(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSession returns one published session.
func (h *PublicHandler) GetSession(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	v, err := h.Engine.Catalog.PublicView(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// RequestChallenge starts an online booking.  The response carries only
// the challenge handle; the code is sent to the email address.
func (h *PublicHandler) RequestChallenge(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req challengeRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	handle, err := h.Engine.Gate.RequestChallenge(c.Request().Context(), middleware.ClientAddr(c), booking.ChallengeRequest{
		SessionID: id,
		CardCode:  req.CardCode,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, handle)
}

// Redeem completes an online booking with the emailed code.
func (h *PublicHandler) Redeem(c echo.Context) error {
	challengeID := strings.TrimSpace(c.Param("id"))
	if challengeID == "" {
		return badRequest(c, "invalid id")
	}
	var req redeemRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	out, err := h.Engine.Gate.Redeem(c.Request().Context(), middleware.ClientAddr(c), challengeID, req.Code)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// CancelBooking cancels the booking identified by the token from the
// confirmation email.
func (h *PublicHandler) CancelBooking(c echo.Context) error {
	var req cancelRequest
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	res, err := h.Engine.Promoter.Cancel(c.Request().Context(), req.Token)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// LookupCard reports the status of the card with the given booking code.
func (h *PublicHandler) LookupCard(c echo.Context) error {
	card, err := h.Engine.Registry.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, publicCard(card, h.Engine.Registry.Bookable(card)))
}

func publicCard(card *model.Card, bookable bool) PublicCard {
	out := PublicCard{Number: card.Number, Status: card.Status, Bookable: bookable}
	if card.Status == model.CardSuspended {
		out.SuspendedUntil = card.SuspendedUntil
	}
	return out
}
