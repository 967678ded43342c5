package booking

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies engine failures so transports can map them without
// knowing every individual error.
type Kind string

const (
	KindInternal             Kind = ""
	KindNotFound             Kind = "not_found"
	KindInvalidState         Kind = "invalid_state"
	KindCapacityExceeded     Kind = "capacity_exceeded"
	KindDuplicateReservation Kind = "duplicate_reservation"
	KindRateLimited          Kind = "rate_limited"
	KindExpired              Kind = "expired"
	KindUnauthorized         Kind = "unauthorized"
	KindInvalid              Kind = "invalid"
	KindUnavailable          Kind = "unavailable"
)

// Error is a domain failure.  Code is stable and machine readable; Message
// is safe to show to the requester.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code so that errors built with Invalidf still satisfy
// errors.Is(err, ErrInvalidInput).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrInvalidToken         = newError(KindUnauthorized, "invalid_token", "card code not recognised")
	ErrTokenNotBookable     = newError(KindInvalidState, "token_not_bookable", "card is locked or suspended")
	ErrCardNotFound         = newError(KindNotFound, "card_not_found", "card not found")
	ErrSessionNotFound      = newError(KindNotFound, "session_not_found", "session not found or not open for booking")
	ErrSessionLocked        = newError(KindInvalidState, "session_locked", "session has bookings; capacity and schedule are locked")
	ErrDuplicateReservation = newError(KindDuplicateReservation, "duplicate_reservation", "an active booking already exists for this card or email")
	ErrSessionFull          = newError(KindCapacityExceeded, "session_full", "session and waitlist are full")
	ErrGuestPoolFull        = newError(KindCapacityExceeded, "guest_pool_full", "no guest tickets left for this session")

	ErrChallengeNotFound = newError(KindNotFound, "challenge_not_found", "verification request not found")
	ErrChallengeUsed     = newError(KindInvalidState, "challenge_used", "verification code already used")
	ErrChallengeExpired  = newError(KindExpired, "challenge_expired", "verification code expired")
	ErrCodeMismatch      = newError(KindUnauthorized, "code_mismatch", "verification code does not match")

	ErrBookingNotFound    = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrAlreadyCancelled   = newError(KindInvalidState, "already_cancelled", "booking already cancelled")
	ErrNotCancellable     = newError(KindInvalidState, "not_cancellable", "booking can no longer be cancelled")
	ErrCancellationClosed = newError(KindInvalidState, "cancellation_closed", "session has already taken place")

	ErrNotSessionDay    = newError(KindInvalidState, "not_session_day", "check-in is only possible on the session day")
	ErrNoReservation    = newError(KindNotFound, "no_reservation", "card has no booking for this session")
	ErrAlreadyCheckedIn = newError(KindInvalidState, "already_checked_in", "card already checked in")
	ErrOnWaitlist       = newError(KindInvalidState, "on_waitlist", "card is on the waitlist, not confirmed")
	ErrInvalidCode      = newError(KindNotFound, "invalid_code", "ticket code not recognised")
	ErrTicketUsed       = newError(KindInvalidState, "ticket_used", "ticket already used")
	ErrTicketExpired    = newError(KindExpired, "ticket_expired", "ticket expired")

	ErrNotificationFailed = newError(KindUnavailable, "notification_failed", "could not send verification email, try again later")
	ErrRateLimited        = newError(KindRateLimited, "rate_limited", "too many requests")
	ErrInvalidInput       = newError(KindInvalid, "invalid_input", "invalid input")
)

// Invalidf returns an input validation error with a specific message.
func Invalidf(format string, args ...any) error {
	return newError(KindInvalid, ErrInvalidInput.Code, fmt.Sprintf(format, args...))
}

// RateLimitedError carries the time until the caller's window resets.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// KindOf returns the Kind of err, or KindInternal for errors that did not
// originate in the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
