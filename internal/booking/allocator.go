package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/utils"
)

// Requester identifies the person holding a booking.
type Requester struct {
	Name  string
	Email string
	Phone string
}

// Outcome is the result of a successful allocation.
type Outcome struct {
	BookingID   uint64              `json:"booking_id"`
	SessionID   uint64              `json:"session_id"`
	Status      model.BookingStatus `json:"status"`
	Position    *int                `json:"position,omitempty"`
	CancelToken string              `json:"cancel_token"`
}

// Allocator assigns confirmed or waitlisted capacity.
type Allocator struct {
	*core
}

// Allocate books cardID onto the session.  It is the staff walk-in path;
// online requesters go through Gate.Redeem, which uses the same
// allocation inside its own transaction.
func (a *Allocator) Allocate(ctx context.Context, sessionID, cardID uint64, req Requester) (*Outcome, error) {
	req, err := cleanRequester(req)
	if err != nil {
		return nil, err
	}
	var (
		b    *model.Booking
		sess *model.Session
	)
	err = a.store.InTx(ctx, func(tx store.Tx) error {
		s, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		sess = s
		b, err = a.allocateTx(ctx, tx, s, cardID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	a.confirm(sess, b)
	return outcomeOf(b), nil
}

// AllocateByNumber resolves the printed card number and allocates.
func (a *Allocator) AllocateByNumber(ctx context.Context, sessionID uint64, number int, req Requester) (*Outcome, error) {
	if number < 1 || number > a.policy.MaxCardNumber {
		return nil, Invalidf("card number must be between 1 and %d", a.policy.MaxCardNumber)
	}
	var cardID uint64
	err := a.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetCardByNumber(ctx, number)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCardNotFound
		}
		if err != nil {
			return fmt.Errorf("get card by number: %w", err)
		}
		cardID = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.Allocate(ctx, sessionID, cardID, req)
}

// allocateTx runs with the session row already locked by the caller.
// Card, session and duplicate checks are repeated here because they may
// have changed since the caller last looked.
func (a *Allocator) allocateTx(ctx context.Context, tx store.Tx, sess *model.Session, cardID uint64, req Requester) (*model.Booking, error) {
	card, err := lockCard(ctx, tx, cardID)
	if errors.Is(err, ErrCardNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	now := a.now()
	if !IsBookable(card, now) {
		return nil, ErrTokenNotBookable
	}
	if card.Status == model.CardSuspended {
		// lapsed suspension
		card.Status = model.CardActive
		card.SuspendedUntil = nil
		if err := tx.UpdateCard(ctx, card); err != nil {
			return nil, fmt.Errorf("reactivate card %d: %w", card.ID, err)
		}
	}
	if !a.isOpen(sess) {
		return nil, ErrSessionNotFound
	}

	if _, err := tx.FindActiveBooking(ctx, sess.ID, card.ID, req.Email); err == nil {
		return nil, ErrDuplicateReservation
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find active booking: %w", err)
	}

	confirmed, err := tx.CountBookings(ctx, sess.ID, model.BookingConfirmed, model.BookingCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}
	b := &model.Booking{
		SessionID: sess.ID,
		CardID:    card.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if confirmed < sess.ConfirmedCapacity {
		b.Status = model.BookingConfirmed
	} else {
		waiting, err := tx.CountBookings(ctx, sess.ID, model.BookingWaitlist)
		if err != nil {
			return nil, fmt.Errorf("count waitlist: %w", err)
		}
		if waiting >= sess.WaitlistCapacity {
			return nil, ErrSessionFull
		}
		pos := waiting + 1
		b.Status = model.BookingWaitlist
		b.Position = &pos
	}

	token, err := utils.RandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("cancel token: %w", err)
	}
	b.CancelToken = token
	if err := tx.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateReservation
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	a.log.Info().Uint64("session_id", sess.ID).Uint64("booking_id", b.ID).Uint64("card_id", card.ID).
		Str("status", string(b.Status)).Msg("booking allocated")
	return b, nil
}

// confirm sends the post-commit confirmation.
func (a *Allocator) confirm(sess *model.Session, b *model.Booking) {
	data := sessionData(sess)
	data["name"] = b.Name
	data["cancel_token"] = b.CancelToken
	kind := notify.KindBookingConfirmed
	if b.Status == model.BookingWaitlist {
		kind = notify.KindBookingWaitlist
		data["position"] = strconv.Itoa(*b.Position)
	}
	a.notifyLater(notify.Message{Kind: kind, To: b.Email, Data: data})
}

func outcomeOf(b *model.Booking) *Outcome {
	return &Outcome{
		BookingID:   b.ID,
		SessionID:   b.SessionID,
		Status:      b.Status,
		Position:    b.Position,
		CancelToken: b.CancelToken,
	}
}

func cleanRequester(r Requester) (Requester, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Name == "" {
		return r, Invalidf("name is required")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return r, Invalidf("email is not valid")
	}
	return r, nil
}
