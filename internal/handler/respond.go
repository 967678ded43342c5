package handler // handler defines http handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
)

// statusOf maps an engine error kind to an HTTP status.
func statusOf(kind booking.Kind) int {
	switch kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindInvalidState, booking.KindCapacityExceeded, booking.KindDuplicateReservation:
		return http.StatusConflict
	case booking.KindRateLimited:
		return http.StatusTooManyRequests
	case booking.KindExpired:
		return http.StatusGone
	case booking.KindUnauthorized:
		return http.StatusUnauthorized
	case booking.KindInvalid:
		return http.StatusBadRequest
	case booking.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err in the {"error", "message"} shape.  Engine errors carry
// their own code and message; anything else is logged and answered with a
// generic internal error.
func fail(c echo.Context, log zerolog.Logger, err error) error {
	var rl *booking.RateLimitedError
	if errors.As(err, &rl) {
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":       booking.ErrRateLimited.Code,
			"message":     rl.Error(),
			"retry_after": secs,
		})
	}

	var be *booking.Error
	if errors.As(err, &be) {
		return c.JSON(statusOf(be.Kind), echo.Map{"error": be.Code, "message": be.Message})
	}

	log.Error().Err(err).Str("method", c.Request().Method).Str("route", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

// badRequest answers 400 with an input validation message.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.ErrInvalidInput.Code, "message": msg})
}

// bind decodes the JSON body into dst and validates it with the echo
// validator.  On failure it returns the message to show the client.
func bind(c echo.Context, dst any) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid body", false
	}
	if err := c.Validate(dst); err != nil {
		return err.Error(), false
	}
	return "", true
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
