package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
)

func TestStatusOf(t *testing.T) {
	cases := map[booking.Kind]int{
		booking.KindNotFound:             http.StatusNotFound,
		booking.KindInvalidState:         http.StatusConflict,
		booking.KindCapacityExceeded:     http.StatusConflict,
		booking.KindDuplicateReservation: http.StatusConflict,
		booking.KindRateLimited:          http.StatusTooManyRequests,
		booking.KindExpired:              http.StatusGone,
		booking.KindUnauthorized:         http.StatusUnauthorized,
		booking.KindInvalid:              http.StatusBadRequest,
		booking.KindUnavailable:          http.StatusServiceUnavailable,
		booking.KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusOf(kind); got != want {
			t.Fatalf("%q: expected %d, got %d", kind, want, got)
		}
	}
}

func failWith(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if werr := fail(c, zerolog.Nop(), err); werr != nil {
		t.Fatalf("fail returned %v", werr)
	}
	body := map[string]any{}
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("decode: %v", jerr)
	}
	return rec, body
}

func TestFailEngineError(t *testing.T) {
	rec, body := failWith(t, fmt.Errorf("allocate: %w", booking.ErrSessionFull))
	if rec.Code != http.StatusConflict || body["error"] != "session_full" {
		t.Fatalf("expected 409 session_full, got %d %v", rec.Code, body)
	}
}

func TestFailRateLimited(t *testing.T) {
	rec, body := failWith(t, &booking.RateLimitedError{RetryAfter: 90 * time.Second})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "90" || body["retry_after"] != float64(90) {
		t.Fatalf("expected retry after 90s, got %q %v", rec.Header().Get("Retry-After"), body)
	}
}

func TestFailInternalHidesDetail(t *testing.T) {
	rec, body := failWith(t, errors.New("dial tcp 10.0.0.1:3306: refused"))
	if rec.Code != http.StatusInternalServerError || body["message"] != "internal error" {
		t.Fatalf("expected generic 500, got %d %v", rec.Code, body)
	}
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		raw string
		ok  bool
	}{{"12", true}, {"0", false}, {"-1", false}, {"x", false}} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tc.raw)
		if _, ok := parseID(c, "id"); ok != tc.ok {
			t.Fatalf("%q: expected ok=%v", tc.raw, tc.ok)
		}
	}
}

func TestReady(t *testing.T) {
	e := echo.New()
	e.GET("/readyz", Ready(map[string]func(ctx context.Context) error{
		"mysql": func(context.Context) error { return errors.New("down") },
	}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
