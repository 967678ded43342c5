package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/utils"
)

// Registry manages access cards and their penalty state.
type Registry struct {
	*core
}

// IsBookable reports whether card may hold a new booking at now.  A
// suspension whose end has passed no longer blocks the card.
func IsBookable(card *model.Card, now time.Time) bool {
	switch card.Status {
	case model.CardActive:
		return card.SuspendedUntil == nil || !now.Before(*card.SuspendedUntil)
	case model.CardSuspended:
		return card.SuspendedUntil != nil && !now.Before(*card.SuspendedUntil)
	default:
		return false
	}
}

// Bookable reports whether card may book right now by the engine clock.
func (r *Registry) Bookable(card *model.Card) bool { return IsBookable(card, r.now()) }

// Get returns a card by ID.
func (r *Registry) Get(ctx context.Context, id uint64) (*model.Card, error) {
	var out *model.Card
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		c, err := getCard(ctx, tx, id)
		out = c
		return err
	})
	return out, err
}

// Lookup resolves a card by the code printed for online booking.
func (r *Registry) Lookup(ctx context.Context, code string) (*model.Card, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidToken
	}
	var out *model.Card
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetCardByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("get card by code: %w", err)
		}
		out = c
		return nil
	})
	return out, err
}

// List returns every card ordered by number.
func (r *Registry) List(ctx context.Context) ([]model.Card, error) {
	var out []model.Card
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		cards, err := tx.ListCards(ctx)
		if err != nil {
			return fmt.Errorf("list cards: %w", err)
		}
		out = cards
		return nil
	})
	return out, err
}

// Lock locks a card from any state and records the reason in its notes.
func (r *Registry) Lock(ctx context.Context, cardID uint64, reason string) (*model.Card, error) {
	var out *model.Card
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		c, err := lockCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		c.Status = model.CardLocked
		if reason = strings.TrimSpace(reason); reason == "" {
			reason = "locked by staff"
		}
		r.appendNote(c, reason)
		if err := tx.UpdateCard(ctx, c); err != nil {
			return fmt.Errorf("update card %d: %w", c.ID, err)
		}
		out = c
		return nil
	})
	if err == nil {
		r.log.Info().Uint64("card_id", cardID).Str("reason", reason).Msg("card locked")
	}
	return out, err
}

// Unlock returns a card to active and clears its penalty history.
func (r *Registry) Unlock(ctx context.Context, cardID uint64) (*model.Card, error) {
	var out *model.Card
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		c, err := lockCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		c.Status = model.CardActive
		c.SuspendedUntil = nil
		c.PenaltyCount = 0
		r.appendNote(c, "unlocked by staff, penalties reset")
		if err := tx.UpdateCard(ctx, c); err != nil {
			return fmt.Errorf("update card %d: %w", c.ID, err)
		}
		out = c
		return nil
	})
	if err == nil {
		r.log.Info().Uint64("card_id", cardID).Msg("card unlocked")
	}
	return out, err
}

// RecordPenalty counts one no-show against the card and applies rule
// when the threshold is reached.  It reports whether the card changed
// state.
func (r *Registry) RecordPenalty(ctx context.Context, cardID uint64, rule PenaltyRule) (*model.Card, bool, error) {
	var (
		out     *model.Card
		changed bool
	)
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		c, ch, err := r.recordPenaltyTx(ctx, tx, cardID, rule)
		out, changed = c, ch
		return err
	})
	return out, changed, err
}

// recordPenaltyTx is the single penalty path shared by the sweep and the
// manual reset.  A card that is already restricted keeps counting but is
// never transitioned again.
func (r *Registry) recordPenaltyTx(ctx context.Context, tx store.Tx, cardID uint64, rule PenaltyRule) (*model.Card, bool, error) {
	c, err := lockCard(ctx, tx, cardID)
	if err != nil {
		return nil, false, err
	}
	now := r.now()
	c.PenaltyCount++

	changed := false
	if rule.Threshold > 0 && c.PenaltyCount >= rule.Threshold && IsBookable(c, now) {
		switch rule.Action {
		case RestrictLock:
			c.Status = model.CardLocked
			c.SuspendedUntil = nil
		default:
			until := now.Add(rule.SuspendFor)
			c.Status = model.CardSuspended
			c.SuspendedUntil = &until
		}
		note := rule.Note
		if note == "" {
			note = fmt.Sprintf("restricted after %d no-shows", c.PenaltyCount)
		}
		r.appendNote(c, note)
		changed = true
	}
	if err := tx.UpdateCard(ctx, c); err != nil {
		return nil, false, fmt.Errorf("update card %d: %w", c.ID, err)
	}
	if changed {
		r.log.Info().Uint64("card_id", c.ID).Int("card_number", c.Number).
			Str("status", string(c.Status)).Int("penalty_count", c.PenaltyCount).Msg("card restricted")
	}
	return c, changed, nil
}

// Provision creates the numbered cards 1..count that do not exist yet,
// each with a random booking code of codeLen characters.  Existing cards
// are left untouched, so running it again only fills gaps.
func (r *Registry) Provision(ctx context.Context, count, codeLen int) ([]model.Card, error) {
	if count < 1 || count > r.policy.MaxCardNumber {
		return nil, Invalidf("count must be between 1 and %d", r.policy.MaxCardNumber)
	}
	if codeLen < 6 {
		return nil, Invalidf("code length must be at least 6")
	}
	var created []model.Card
	for n := 1; n <= count; n++ {
		card, err := r.provisionOne(ctx, n, codeLen)
		if err != nil {
			return created, err
		}
		if card != nil {
			created = append(created, *card)
		}
	}
	r.log.Info().Int("created", len(created)).Int("pool", count).Msg("cards provisioned")
	return created, nil
}

func (r *Registry) provisionOne(ctx context.Context, number, codeLen int) (*model.Card, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		var out *model.Card
		err := r.store.InTx(ctx, func(tx store.Tx) error {
			if _, err := tx.GetCardByNumber(ctx, number); err == nil {
				return nil
			} else if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("get card %d: %w", number, err)
			}
			code, err := utils.RandomString(codeLen, utils.TicketAlphabet)
			if err != nil {
				return err
			}
			c := &model.Card{Number: number, Code: code, Status: model.CardActive}
			if err := tx.CreateCard(ctx, c); err != nil {
				return err
			}
			out = c
			return nil
		})
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("provision card %d: %w", number, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("provision card %d: no unique code after %d attempts", number, codeAttempts)
}

func (r *Registry) appendNote(c *model.Card, text string) {
	line := fmt.Sprintf("[%s] %s", r.clock().In(r.loc).Format(dateLayout), text)
	if c.Notes == "" {
		c.Notes = line
		return
	}
	c.Notes += "\n" + line
}

func getCard(ctx context.Context, tx store.Tx, id uint64) (*model.Card, error) {
	c, err := tx.GetCard(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

func lockCard(ctx context.Context, tx store.Tx, id uint64) (*model.Card, error) {
	c, err := tx.LockCard(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock card %d: %w", id, err)
	}
	return c, nil
}
