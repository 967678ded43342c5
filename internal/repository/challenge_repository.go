package repository

import (
	"context"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

const challengeCols = `id, email, code_hash, session_id, card_id, name, phone, verified, expires_at, created_at`

func scanChallenge(row scanner) (*model.Challenge, error) {
	var c model.Challenge
	if err := row.Scan(&c.ID, &c.Email, &c.CodeHash, &c.SessionID, &c.CardID, &c.Name, &c.Phone, &c.Verified,
		&c.ExpiresAt, &c.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (t *txn) CreateChallenge(ctx context.Context, c *model.Challenge) error {
	now := t.stamp()
	const q = `INSERT INTO email_challenges (id, email, code_hash, session_id, card_id, name, phone, verified,
        expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, q, c.ID, c.Email, c.CodeHash, c.SessionID, c.CardID, c.Name, c.Phone,
		c.Verified, c.ExpiresAt.UTC(), now); err != nil {
		return mapErr(err)
	}
	c.CreatedAt = now
	return nil
}

func (t *txn) GetChallenge(ctx context.Context, id string) (*model.Challenge, error) {
	return scanChallenge(t.tx.QueryRowContext(ctx, `SELECT `+challengeCols+` FROM email_challenges WHERE id=?`, id))
}

func (t *txn) LockChallenge(ctx context.Context, id string) (*model.Challenge, error) {
	return scanChallenge(t.tx.QueryRowContext(ctx, `SELECT `+challengeCols+` FROM email_challenges WHERE id=? FOR UPDATE`, id))
}

func (t *txn) UpdateChallenge(ctx context.Context, c *model.Challenge) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE email_challenges SET verified=? WHERE id=?`, c.Verified, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *txn) DeleteChallenge(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM email_challenges WHERE id=?`, id)
	return err
}

func (t *txn) DeleteOpenChallenges(ctx context.Context, email string, sessionID uint64) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM email_challenges WHERE email=? AND session_id=? AND verified=0`, email, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *txn) DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM email_challenges WHERE verified=0 AND expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
