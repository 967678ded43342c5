package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

// AdmissionType tells door staff which pool a person was admitted from.
type AdmissionType = model.AdmissionKind

// AdmissionResult is what the door screen shows after a successful scan.
type AdmissionResult struct {
	Name        string        `json:"name"`
	Type        AdmissionType `json:"type"`
	CardNumber  int           `json:"card_number,omitempty"`
	AllocatedBy string        `json:"allocated_by,omitempty"`
	AdmittedAt  time.Time     `json:"admitted_at"`
}

// Checkpoint admits people at the door on the session day.
type Checkpoint struct {
	*core
}

// CheckIn admits whoever presents value: a printed card number, or a
// guest ticket code, either typed or scanned from a URL.
func (c *Checkpoint) CheckIn(ctx context.Context, sessionID uint64, presented, admittedBy string) (*AdmissionResult, error) {
	value := extractCode(presented)
	if value == "" {
		return nil, ErrInvalidCode
	}
	var out *AdmissionResult
	err := c.store.InTx(ctx, func(tx store.Tx) error {
		s, err := tx.GetSession(ctx, sessionID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session %d: %w", sessionID, err)
		}
		if s.Date != c.today() {
			return ErrNotSessionDay
		}
		if n, ok := c.cardNumber(value); ok {
			out, err = c.admitCard(ctx, tx, s, n, admittedBy)
			return err
		}
		out, err = c.admitGuest(ctx, tx, s, strings.ToUpper(value), admittedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Uint64("session_id", sessionID).Str("type", string(out.Type)).
		Int("card_number", out.CardNumber).Str("admitted_by", admittedBy).Msg("admitted")
	return out, nil
}

func (c *Checkpoint) cardNumber(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > c.policy.MaxCardNumber {
		return 0, false
	}
	return n, true
}

func (c *Checkpoint) admitCard(ctx context.Context, tx store.Tx, s *model.Session, number int, admittedBy string) (*AdmissionResult, error) {
	card, err := tx.GetCardByNumber(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoReservation
	}
	if err != nil {
		return nil, fmt.Errorf("get card by number: %w", err)
	}
	b, err := tx.LockBookingForCard(ctx, s.ID, card.ID, model.BookingConfirmed, model.BookingWaitlist, model.BookingCheckedIn)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoReservation
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking for card: %w", err)
	}
	switch b.Status {
	case model.BookingCheckedIn:
		return nil, ErrAlreadyCheckedIn
	case model.BookingWaitlist:
		return nil, ErrOnWaitlist
	}

	now := c.now()
	b.Status = model.BookingCheckedIn
	b.CheckedInAt = &now
	if err := tx.UpdateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("check in booking %d: %w", b.ID, err)
	}
	bid := b.ID
	if err := tx.CreateAdmission(ctx, &model.Admission{
		SessionID:  s.ID,
		Kind:       model.AdmissionCard,
		BookingID:  &bid,
		Name:       b.Name,
		AdmittedBy: admittedBy,
		AdmittedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("record admission: %w", err)
	}
	return &AdmissionResult{Name: b.Name, Type: model.AdmissionCard, CardNumber: card.Number, AdmittedAt: now}, nil
}

func (c *Checkpoint) admitGuest(ctx context.Context, tx store.Tx, s *model.Session, code, admittedBy string) (*AdmissionResult, error) {
	t, err := tx.LockGuestTicketByCode(ctx, s.ID, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("lock guest ticket: %w", err)
	}
	switch t.Status {
	case model.TicketUsed:
		return nil, ErrTicketUsed
	case model.TicketExpired:
		return nil, ErrTicketExpired
	}

	now := c.now()
	t.Status = model.TicketUsed
	t.UsedAt = &now
	if err := tx.UpdateGuestTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("use ticket %d: %w", t.ID, err)
	}
	tid := t.ID
	if err := tx.CreateAdmission(ctx, &model.Admission{
		SessionID:  s.ID,
		Kind:       model.AdmissionGuest,
		TicketID:   &tid,
		Name:       t.Name,
		AdmittedBy: admittedBy,
		AdmittedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("record admission: %w", err)
	}
	return &AdmissionResult{Name: t.Name, Type: model.AdmissionGuest, AllocatedBy: t.AllocatedBy, AdmittedAt: now}, nil
}

// extractCode pulls the admission code out of scanner input.  URLs yield
// their code or ticket query parameter, else their last path segment.
func extractCode(presented string) string {
	v := strings.TrimSpace(presented)
	if !strings.Contains(v, "://") {
		return v
	}
	u, err := url.Parse(v)
	if err != nil {
		return v
	}
	q := u.Query()
	for _, key := range []string{"code", "ticket"} {
		if c := strings.TrimSpace(q.Get(key)); c != "" {
			return c
		}
	}
	path := strings.Trim(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return strings.TrimSpace(path)
}
