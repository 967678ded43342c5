package booking

import (
	"context"
	"fmt"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

// Report summarises a reconciliation run.
type Report struct {
	Sessions        int `json:"sessions"`
	NoShows         int `json:"no_shows"`
	ExpiredTickets  int `json:"expired_tickets"`
	PenalizedCards  int `json:"penalized_cards"`
	RestrictedCards int `json:"restricted_cards"`

	// penalized holds the distinct cards behind PenalizedCards.
	penalized map[uint64]struct{}
}

func (r *Report) penalize(cardID uint64) {
	if r.penalized == nil {
		r.penalized = make(map[uint64]struct{})
	}
	r.penalized[cardID] = struct{}{}
	r.PenalizedCards = len(r.penalized)
}

func (r *Report) add(o Report) {
	r.Sessions += o.Sessions
	r.NoShows += o.NoShows
	r.ExpiredTickets += o.ExpiredTickets
	r.RestrictedCards += o.RestrictedCards
	for id := range o.penalized {
		r.penalize(id)
	}
}

// Reconciler turns unattended bookings into no-shows and penalises the
// cards behind them.
type Reconciler struct {
	*core
	registry *Registry
}

// Sweep reconciles every past, non-cancelled session.  Each session is
// handled in its own transaction; running it again finds nothing to do.
func (r *Reconciler) Sweep(ctx context.Context) (*Report, error) {
	var past []model.Session
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		past, err = tx.ListSessions(ctx, store.SessionFilter{BeforeDate: r.today(), ExcludeCancel: true})
		if err != nil {
			return fmt.Errorf("list past sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := &Report{}
	for _, s := range past {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rep, err := r.reconcile(ctx, s.ID, r.policy.SweepRule, model.BookingConfirmed)
		if err != nil {
			return total, fmt.Errorf("sweep session %d: %w", s.ID, err)
		}
		total.add(*rep)
	}
	r.log.Info().Int("sessions", total.Sessions).Int("no_shows", total.NoShows).
		Int("expired_tickets", total.ExpiredTickets).Int("restricted_cards", total.RestrictedCards).Msg("no-show sweep finished")
	return total, nil
}

// Reset closes one session on staff request regardless of its date.
// Confirmed and waitlisted bookings both count as no-shows.
func (r *Reconciler) Reset(ctx context.Context, sessionID uint64) (*Report, error) {
	rep, err := r.reconcile(ctx, sessionID, r.policy.ResetRule, model.BookingConfirmed, model.BookingWaitlist)
	if err != nil {
		return nil, err
	}
	r.log.Info().Uint64("session_id", sessionID).Int("no_shows", rep.NoShows).
		Int("restricted_cards", rep.RestrictedCards).Msg("session reset")
	return rep, nil
}

func (r *Reconciler) reconcile(ctx context.Context, sessionID uint64, rule PenaltyRule, statuses ...model.BookingStatus) (*Report, error) {
	rep := &Report{}
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		*rep = Report{Sessions: 1}
		s, err := lockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		missed, err := tx.ListBookings(ctx, s.ID, statuses...)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		for i := range missed {
			b := &missed[i]
			b.Status = model.BookingNoShow
			b.Position = nil
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return fmt.Errorf("mark no-show %d: %w", b.ID, err)
			}
			rep.NoShows++
			_, changed, err := r.registry.recordPenaltyTx(ctx, tx, b.CardID, rule)
			if err != nil {
				return err
			}
			rep.penalize(b.CardID)
			if changed {
				rep.RestrictedCards++
			}
		}

		tickets, err := tx.ListGuestTickets(ctx, s.ID, model.TicketValid)
		if err != nil {
			return fmt.Errorf("list guest tickets: %w", err)
		}
		for i := range tickets {
			t := &tickets[i]
			t.Status = model.TicketExpired
			if err := tx.UpdateGuestTicket(ctx, t); err != nil {
				return fmt.Errorf("expire ticket %d: %w", t.ID, err)
			}
			rep.ExpiredTickets++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}
