package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/utils"
)

// codeAttempts bounds retries on ticket code collisions.
const codeAttempts = 5

// GuestRequest describes a ticket handed out by staff.
type GuestRequest struct {
	Name        string
	Contact     string
	AllocatedBy string
}

// GuestDesk issues tickets from a session's guest pool, which is
// independent of card capacity.
type GuestDesk struct {
	*core
}

// Issue creates a valid guest ticket if the pool has room.
func (g *GuestDesk) Issue(ctx context.Context, sessionID uint64, req GuestRequest) (*model.GuestTicket, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.Name == "" {
		return nil, Invalidf("guest name is required")
	}

	var out *model.GuestTicket
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := utils.RandomString(g.policy.TicketCodeLength, utils.TicketAlphabet)
		if err != nil {
			return nil, fmt.Errorf("ticket code: %w", err)
		}
		err = g.store.InTx(ctx, func(tx store.Tx) error {
			s, err := lockSession(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if s.Cancelled {
				return ErrSessionNotFound
			}
			issued, err := tx.CountGuestTickets(ctx, s.ID, model.TicketValid, model.TicketUsed)
			if err != nil {
				return fmt.Errorf("count guest tickets: %w", err)
			}
			if issued >= s.GuestCapacity {
				return ErrGuestPoolFull
			}
			t := &model.GuestTicket{
				SessionID:   s.ID,
				Code:        code,
				Name:        req.Name,
				Contact:     req.Contact,
				AllocatedBy: req.AllocatedBy,
				Status:      model.TicketValid,
			}
			if err := tx.CreateGuestTicket(ctx, t); err != nil {
				return err
			}
			out = t
			return nil
		})
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		g.log.Info().Uint64("session_id", sessionID).Uint64("ticket_id", out.ID).
			Str("allocated_by", req.AllocatedBy).Msg("guest ticket issued")
		return out, nil
	}
	return nil, fmt.Errorf("guest ticket: no unique code after %d attempts", codeAttempts)
}

// List returns every ticket issued for the session.
func (g *GuestDesk) List(ctx context.Context, sessionID uint64) ([]model.GuestTicket, error) {
	var out []model.GuestTicket
	err := g.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetSession(ctx, sessionID); errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		} else if err != nil {
			return fmt.Errorf("get session %d: %w", sessionID, err)
		}
		tickets, err := tx.ListGuestTickets(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list guest tickets: %w", err)
		}
		out = tickets
		return nil
	})
	return out, err
}
