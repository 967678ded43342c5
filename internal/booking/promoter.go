package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/store"
)

// CancelResult describes a cancellation and the promotion it caused.
type CancelResult struct {
	BookingID  uint64  `json:"booking_id"`
	SessionID  uint64  `json:"session_id"`
	PromotedID *uint64 `json:"promoted_booking_id,omitempty"`
}

// Promoter cancels bookings and moves the waitlist forward.
type Promoter struct {
	*core
}

// Cancel cancels the booking identified by the token mailed to the
// requester.
func (p *Promoter) Cancel(ctx context.Context, cancelToken string) (*CancelResult, error) {
	cancelToken = strings.TrimSpace(cancelToken)
	if cancelToken == "" {
		return nil, ErrBookingNotFound
	}
	return p.cancel(ctx, func(tx store.Tx) (*model.Booking, error) {
		return tx.GetBookingByCancelToken(ctx, cancelToken)
	})
}

// CancelByID is the staff path.
func (p *Promoter) CancelByID(ctx context.Context, bookingID uint64) (*CancelResult, error) {
	return p.cancel(ctx, func(tx store.Tx) (*model.Booking, error) {
		return tx.GetBooking(ctx, bookingID)
	})
}

func (p *Promoter) cancel(ctx context.Context, find func(store.Tx) (*model.Booking, error)) (*CancelResult, error) {
	var (
		res       CancelResult
		sess      *model.Session
		cancelled *model.Booking
		promoted  *model.Booking
	)
	err := p.store.InTx(ctx, func(tx store.Tx) error {
		peek, err := find(tx)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("find booking: %w", err)
		}
		s, err := lockSession(ctx, tx, peek.SessionID)
		if err != nil {
			return err
		}
		b, err := tx.LockBooking(ctx, peek.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("lock booking %d: %w", peek.ID, err)
		}
		switch b.Status {
		case model.BookingCancelled:
			return ErrAlreadyCancelled
		case model.BookingConfirmed, model.BookingWaitlist:
		default:
			return ErrNotCancellable
		}
		if s.Date < p.today() {
			return ErrCancellationClosed
		}

		wasConfirmed := b.Status == model.BookingConfirmed
		b.Status = model.BookingCancelled
		b.Position = nil
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return fmt.Errorf("cancel booking %d: %w", b.ID, err)
		}

		waiting, err := tx.ListBookings(ctx, s.ID, model.BookingWaitlist)
		if err != nil {
			return fmt.Errorf("list waitlist: %w", err)
		}
		if wasConfirmed && len(waiting) > 0 {
			head := waiting[0]
			head.Status = model.BookingConfirmed
			head.Position = nil
			if err := tx.UpdateBooking(ctx, &head); err != nil {
				return fmt.Errorf("promote booking %d: %w", head.ID, err)
			}
			promoted = &head
			waiting = waiting[1:]
		}
		if err := renumber(ctx, tx, waiting); err != nil {
			return err
		}

		sess, cancelled = s, b
		res = CancelResult{BookingID: b.ID, SessionID: s.ID}
		if promoted != nil {
			id := promoted.ID
			res.PromotedID = &id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := p.log.Info().Uint64("session_id", res.SessionID).Uint64("booking_id", res.BookingID)
	if promoted != nil {
		ev = ev.Uint64("promoted_booking_id", promoted.ID)
		data := sessionData(sess)
		data["name"] = promoted.Name
		p.notifyLater(notify.Message{Kind: notify.KindWaitlistPromoted, To: promoted.Email, Data: data})
	}
	ev.Msg("booking cancelled")

	data := sessionData(sess)
	data["name"] = cancelled.Name
	p.notifyLater(notify.Message{Kind: notify.KindBookingCancelled, To: cancelled.Email, Data: data})
	return &res, nil
}

// renumber assigns positions 1..N to waiting, which must already be in
// queue order.
func renumber(ctx context.Context, tx store.Tx, waiting []model.Booking) error {
	for i := range waiting {
		want := i + 1
		b := &waiting[i]
		if b.Position != nil && *b.Position == want {
			continue
		}
		b.Position = &want
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return fmt.Errorf("renumber booking %d: %w", b.ID, err)
		}
	}
	return nil
}
