package booking

import (
	"testing"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
)

func positionOf(b *model.Booking) int {
	if b.Position == nil {
		return 0
	}
	return *b.Position
}

func TestCancelConfirmedPromotesHeadOfWaitlist(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 3, 0)
	a := f.allocate(s.ID, f.card(1))
	b := f.allocate(s.ID, f.card(2))
	c := f.allocate(s.ID, f.card(3))
	d := f.allocate(s.ID, f.card(4))

	res, err := f.eng.Promoter.Cancel(f.ctx, a.CancelToken)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.PromotedID == nil || *res.PromotedID != b.BookingID {
		t.Fatalf("expected booking %d promoted, got %v", b.BookingID, res.PromotedID)
	}

	if got := f.booking(a.BookingID); got.Status != model.BookingCancelled || got.Position != nil {
		t.Fatalf("expected cancelled without position, got %+v", got)
	}
	if got := f.booking(b.BookingID); got.Status != model.BookingConfirmed || got.Position != nil {
		t.Fatalf("expected promoted booking confirmed without position, got %+v", got)
	}
	if got := positionOf(f.booking(c.BookingID)); got != 1 {
		t.Fatalf("expected position 1, got %d", got)
	}
	if got := positionOf(f.booking(d.BookingID)); got != 2 {
		t.Fatalf("expected position 2, got %d", got)
	}

	f.wait()
	if n := f.notes.count(notify.KindWaitlistPromoted); n != 1 {
		t.Fatalf("expected 1 promotion notice, got %d", n)
	}
	if n := f.notes.count(notify.KindBookingCancelled); n != 1 {
		t.Fatalf("expected 1 cancellation notice, got %d", n)
	}
}

func TestCancelWaitlistedRenumbersWithoutPromotion(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 3, 0)
	a := f.allocate(s.ID, f.card(1))
	b := f.allocate(s.ID, f.card(2))
	c := f.allocate(s.ID, f.card(3))
	d := f.allocate(s.ID, f.card(4))

	res, err := f.eng.Promoter.CancelByID(f.ctx, b.BookingID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.PromotedID != nil {
		t.Fatalf("expected no promotion, got %d", *res.PromotedID)
	}
	if got := f.booking(a.BookingID); got.Status != model.BookingConfirmed {
		t.Fatalf("expected confirmed booking untouched, got %s", got.Status)
	}
	if got := positionOf(f.booking(c.BookingID)); got != 1 {
		t.Fatalf("expected position 1, got %d", got)
	}
	if got := positionOf(f.booking(d.BookingID)); got != 2 {
		t.Fatalf("expected position 2, got %d", got)
	}
}

func TestCancelWithEmptyWaitlistFreesSeat(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 0, 0)
	a := f.allocate(s.ID, f.card(1))
	if _, err := f.eng.Promoter.Cancel(f.ctx, a.CancelToken); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out := f.allocate(s.ID, f.card(2)); out.Status != model.BookingConfirmed {
		t.Fatalf("expected freed seat to be confirmed, got %s", out.Status)
	}
}

func TestCancelRejections(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 2, 0, 0)
	a := f.allocate(s.ID, f.card(1))

	if _, err := f.eng.Promoter.Cancel(f.ctx, a.CancelToken); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.eng.Promoter.Cancel(f.ctx, a.CancelToken)
	expectErr(t, err, ErrAlreadyCancelled)

	_, err = f.eng.Promoter.Cancel(f.ctx, "unknown")
	expectErr(t, err, ErrBookingNotFound)
	_, err = f.eng.Promoter.Cancel(f.ctx, "  ")
	expectErr(t, err, ErrBookingNotFound)

	b := f.allocate(s.ID, f.card(2))
	if _, err := f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "2", "door"); err != nil {
		t.Fatalf("check in: %v", err)
	}
	_, err = f.eng.Promoter.CancelByID(f.ctx, b.BookingID)
	expectErr(t, err, ErrNotCancellable)
}

func TestCancelClosedAfterSessionDay(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 0, 0)
	a := f.allocate(s.ID, f.card(1))

	f.clock.advance(24 * time.Hour)
	_, err := f.eng.Promoter.Cancel(f.ctx, a.CancelToken)
	expectErr(t, err, ErrCancellationClosed)
}
