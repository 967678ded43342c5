package booking

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
)

const addr = "203.0.113.7"

func challengeFor(s *model.Session, c *model.Card, email string) ChallengeRequest {
	return ChallengeRequest{SessionID: s.ID, CardCode: c.Code, Name: "Ada", Email: email}
}

func TestVerificationFlowAllocates(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 1, 0)
	c := f.card(1)

	h, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "Ada@Example.com"))
	if err != nil {
		t.Fatalf("request challenge: %v", err)
	}
	if want := f.clock.now().Add(15 * time.Minute); !h.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, h.ExpiresAt)
	}
	code := f.notes.lastCode(t, "ada@example.com")
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, wrong)
	expectErr(t, err, ErrCodeMismatch)

	out, err := f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if out.Status != model.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", out.Status)
	}
	if b := f.booking(out.BookingID); b.Email != "ada@example.com" || b.CardID != c.ID {
		t.Fatalf("unexpected booking %+v", b)
	}

	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	expectErr(t, err, ErrChallengeUsed)
}

func TestRedeemExpiredChallenge(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 0, 0)
	c := f.card(1)
	h, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	if err != nil {
		t.Fatalf("request challenge: %v", err)
	}
	code := f.notes.lastCode(t, "a@example.com")

	f.clock.advance(15 * time.Minute)
	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	expectErr(t, err, ErrChallengeExpired)

	_, err = f.eng.Gate.Redeem(f.ctx, addr, "no-such-id", code)
	expectErr(t, err, ErrChallengeNotFound)
}

func TestRedeemFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 0, 0)
	c1, c2 := f.card(1), f.card(2)

	h, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c1, "one@example.com"))
	if err != nil {
		t.Fatalf("request challenge: %v", err)
	}
	code := f.notes.lastCode(t, "one@example.com")

	// The seat goes to a walk-in before the requester redeems.
	walkIn, err := f.eng.Allocator.Allocate(f.ctx, s.ID, c2.ID, Requester{Name: "Walk In"})
	if err != nil {
		t.Fatalf("walk-in: %v", err)
	}
	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	expectErr(t, err, ErrSessionFull)

	// The challenge was not consumed by the failed attempt.
	if _, err := f.eng.Promoter.CancelByID(f.ctx, walkIn.BookingID); err != nil {
		t.Fatalf("cancel walk-in: %v", err)
	}
	if _, err := f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestRequestChallengeRejections(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)
	n := 0
	nextAddr := func() string {
		n++
		return fmt.Sprintf("192.0.2.%d", n)
	}

	_, err := f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), ChallengeRequest{SessionID: s.ID, CardCode: "NOPE", Name: "A", Email: "a@example.com"})
	expectErr(t, err, ErrInvalidToken)

	locked := f.card(2)
	locked.Status = model.CardLocked
	f.updateCard(locked)
	_, err = f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), challengeFor(s, locked, "b@example.com"))
	expectErr(t, err, ErrTokenNotBookable)

	_, err = f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), ChallengeRequest{SessionID: 999, CardCode: c.Code, Name: "A", Email: "a@example.com"})
	expectErr(t, err, ErrSessionNotFound)

	cancelled := f.session(today, 5, 0, 0)
	if _, err := f.eng.Catalog.Cancel(f.ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel session: %v", err)
	}
	_, err = f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), challengeFor(cancelled, c, "a@example.com"))
	expectErr(t, err, ErrSessionNotFound)

	f.allocate(s.ID, c)
	_, err = f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), challengeFor(s, c, "fresh@example.com"))
	expectErr(t, err, ErrDuplicateReservation)

	_, err = f.eng.Gate.RequestChallenge(f.ctx, nextAddr(), ChallengeRequest{SessionID: s.ID, CardCode: c.Code, Name: "A"})
	expectErr(t, err, ErrInvalidInput)
}

func TestRequestChallengeReplacesEarlierChallenge(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)

	first, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	firstCode := f.notes.lastCode(t, "a@example.com")
	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("second request: %v", err)
	}
	_, err = f.eng.Gate.Redeem(f.ctx, addr, first.ChallengeID, firstCode)
	expectErr(t, err, ErrChallengeNotFound)
}

func TestRequestChallengeNotificationFailure(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)

	f.notes.fail("smtp: connection refused")
	_, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	expectErr(t, err, ErrNotificationFailed)
	if KindOf(err) != KindUnavailable {
		t.Fatalf("expected unavailable kind, got %q", KindOf(err))
	}

	f.notes.reset()
	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("retry: %v", err)
	}

	// Only the delivered challenge is left to clean up.
	f.clock.advance(2 * time.Hour)
	n, err := f.eng.Gate.Cleanup(f.ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired challenge, got %d", n)
	}
}

func TestRequestChallengeWithoutNotifierSucceeds(t *testing.T) {
	f := newFixture(t)
	f.eng = New(Deps{Store: f.st, Notifier: notify.Disabled{}, Now: f.clock.now})
	s := f.session(today, 5, 0, 0)
	c := f.card(1)
	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("expected success without notifier, got %v", err)
	}
}

func TestRequestChallengeRateLimited(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)

	for i := 0; i < 5; i++ {
		if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	_, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > 15*time.Minute {
		t.Fatalf("expected retry within the window, got %s", rl.RetryAfter)
	}

	if _, err := f.eng.Gate.RequestChallenge(f.ctx, "198.51.100.1", challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("expected other address to pass, got %v", err)
	}

	f.clock.advance(15 * time.Minute)
	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestRedeemRateLimited(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)
	h, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	if err != nil {
		t.Fatalf("request challenge: %v", err)
	}
	code := f.notes.lastCode(t, "a@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 10; i++ {
		_, err := f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, wrong)
		expectErr(t, err, ErrCodeMismatch)
	}
	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError on attempt 11, got %v", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > 15*time.Minute {
		t.Fatalf("expected retry within the window, got %s", rl.RetryAfter)
	}

	_, err = f.eng.Gate.Redeem(f.ctx, "198.51.100.1", h.ChallengeID, wrong)
	expectErr(t, err, ErrCodeMismatch)

	f.clock.advance(14 * time.Minute)
	_, err = f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, code)
	if !errors.As(err, &rl) {
		t.Fatalf("expected limit to hold inside the window, got %v", err)
	}
	f.clock.advance(time.Minute)
	h, err = f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com"))
	if err != nil {
		t.Fatalf("request fresh challenge: %v", err)
	}
	if _, err := f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, f.notes.lastCode(t, "a@example.com")); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestRequestChallengeNeverLogsCode(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.eng = New(Deps{
		Store:    f.st,
		Notifier: f.notes,
		Log:      zerolog.New(&buf).Level(zerolog.DebugLevel),
		Now:      f.clock.now,
		Location: time.UTC,
		Policy:   DefaultPolicy(),
	})
	f.notes.fail(notify.ReasonNotConfigured)
	s := f.session(today, 5, 0, 0)
	c := f.card(1)

	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c, "a@example.com")); err != nil {
		t.Fatalf("request challenge: %v", err)
	}
	code := f.notes.lastCode(t, "a@example.com")
	if !strings.Contains(buf.String(), "notifier not configured") {
		t.Fatalf("expected a not-configured log line, got %q", buf.String())
	}
	if strings.Contains(buf.String(), code) {
		t.Fatalf("verification code leaked into logs: %q", buf.String())
	}
}

func TestCleanupKeepsVerifiedChallenges(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 5, 0, 0)
	c1, c2 := f.card(1), f.card(2)

	h, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c1, "a@example.com"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.eng.Gate.Redeem(f.ctx, addr, h.ChallengeID, f.notes.lastCode(t, "a@example.com")); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := f.eng.Gate.RequestChallenge(f.ctx, addr, challengeFor(s, c2, "b@example.com")); err != nil {
		t.Fatalf("request: %v", err)
	}

	f.clock.advance(30 * time.Minute)
	if n, _ := f.eng.Gate.Cleanup(f.ctx); n != 0 {
		t.Fatalf("expected nothing inside the grace period, got %d", n)
	}
	f.clock.advance(time.Hour)
	if n, _ := f.eng.Gate.Cleanup(f.ctx); n != 1 {
		t.Fatalf("expected only the unverified challenge removed, got %d", n)
	}
}
