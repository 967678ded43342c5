package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/utils"
)

const codeDigits = 6

// ChallengeRequest is an online booking attempt awaiting email proof.
type ChallengeRequest struct {
	SessionID uint64
	CardCode  string
	Name      string
	Email     string
	Phone     string
}

// ChallengeHandle identifies an issued challenge.  The code itself only
// travels by email.
type ChallengeHandle struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Gate issues and redeems email verification challenges.
type Gate struct {
	*core
	alloc *Allocator
}

// RequestChallenge validates an online booking attempt and mails a
// one-time code to the requester.
func (g *Gate) RequestChallenge(ctx context.Context, clientAddr string, req ChallengeRequest) (*ChallengeHandle, error) {
	if err := g.throttle(ctx, "challenge.request:"+clientAddr, g.policy.RequestLimit); err != nil {
		return nil, err
	}
	who, err := cleanRequester(Requester{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		return nil, err
	}
	if who.Email == "" {
		return nil, Invalidf("email is required")
	}
	code := strings.TrimSpace(req.CardCode)
	if code == "" {
		return nil, ErrInvalidToken
	}

	secret, err := utils.RandomDigits(codeDigits)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	ch := &model.Challenge{
		ID:        uuid.NewString(),
		Email:     who.Email,
		CodeHash:  utils.HashCode(secret),
		SessionID: req.SessionID,
		Name:      who.Name,
		Phone:     who.Phone,
		ExpiresAt: g.now().Add(g.policy.ChallengeTTL),
	}

	var sess *model.Session
	err = g.store.InTx(ctx, func(tx store.Tx) error {
		card, err := tx.GetCardByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("get card by code: %w", err)
		}
		if !IsBookable(card, g.now()) {
			return ErrTokenNotBookable
		}
		s, err := tx.GetSession(ctx, req.SessionID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !g.isOpen(s)) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session %d: %w", req.SessionID, err)
		}
		sess = s
		if _, err := tx.FindActiveBooking(ctx, s.ID, card.ID, who.Email); err == nil {
			return ErrDuplicateReservation
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("find active booking: %w", err)
		}
		if _, err := tx.DeleteOpenChallenges(ctx, who.Email, s.ID); err != nil {
			return fmt.Errorf("delete open challenges: %w", err)
		}
		ch.CardID = card.ID
		if err := tx.CreateChallenge(ctx, ch); err != nil {
			return fmt.Errorf("create challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := sessionData(sess)
	data["code"] = secret
	data["name"] = who.Name
	data["expires_at"] = ch.ExpiresAt.In(g.loc).Format("15:04")
	res := g.notifier.Send(ctx, notify.Message{Kind: notify.KindVerificationCode, To: who.Email, Data: data})
	switch {
	case res.NotConfigured():
		g.log.Info().Str("challenge_id", ch.ID).Msg("verification email not sent: notifier not configured")
	case !res.Sent:
		g.log.Warn().Str("challenge_id", ch.ID).Str("reason", res.Reason).Msg("verification email failed")
		dctx := context.WithoutCancel(ctx)
		if derr := g.store.InTx(dctx, func(tx store.Tx) error {
			return tx.DeleteChallenge(dctx, ch.ID)
		}); derr != nil {
			g.log.Error().Err(derr).Str("challenge_id", ch.ID).Msg("delete undelivered challenge")
		}
		return nil, ErrNotificationFailed
	}
	return &ChallengeHandle{ChallengeID: ch.ID, ExpiresAt: ch.ExpiresAt}, nil
}

// Redeem checks the mailed code and, in the same transaction, allocates
// the booking and consumes the challenge.
func (g *Gate) Redeem(ctx context.Context, clientAddr, challengeID, code string) (*Outcome, error) {
	if err := g.throttle(ctx, "challenge.redeem:"+clientAddr, g.policy.RedeemLimit); err != nil {
		return nil, err
	}
	challengeID = strings.TrimSpace(challengeID)
	code = strings.TrimSpace(code)

	var (
		b    *model.Booking
		sess *model.Session
	)
	err := g.store.InTx(ctx, func(tx store.Tx) error {
		peek, err := tx.GetChallenge(ctx, challengeID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		if err != nil {
			return fmt.Errorf("get challenge: %w", err)
		}
		s, err := lockSession(ctx, tx, peek.SessionID)
		if err != nil {
			return err
		}
		ch, err := tx.LockChallenge(ctx, challengeID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		if err != nil {
			return fmt.Errorf("lock challenge: %w", err)
		}
		if ch.Verified {
			return ErrChallengeUsed
		}
		if !g.now().Before(ch.ExpiresAt) {
			return ErrChallengeExpired
		}
		if !utils.HashEqual(utils.HashCode(code), ch.CodeHash) {
			return ErrCodeMismatch
		}
		sess = s
		b, err = g.alloc.allocateTx(ctx, tx, s, ch.CardID, Requester{Name: ch.Name, Email: ch.Email, Phone: ch.Phone})
		if err != nil {
			return err
		}
		ch.Verified = true
		if err := tx.UpdateChallenge(ctx, ch); err != nil {
			return fmt.Errorf("mark challenge verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.alloc.confirm(sess, b)
	return outcomeOf(b), nil
}

// Cleanup removes unverified challenges that expired longer ago than the
// grace period.  Verified challenges are kept as a record of consent.
func (g *Gate) Cleanup(ctx context.Context) (int64, error) {
	cutoff := g.now().Add(-g.policy.CleanupGrace)
	var n int64
	err := g.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.DeleteExpiredChallenges(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete expired challenges: %w", err)
		}
		return nil
	})
	if err == nil && n > 0 {
		g.log.Info().Int64("deleted", n).Msg("expired challenges removed")
	}
	return n, err
}
