package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

const cardCols = `id, card_number, code, status, penalty_count, suspended_until, notes, created_at, updated_at`

func scanCard(row scanner) (*model.Card, error) {
	var (
		c     model.Card
		until sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Number, &c.Code, &c.Status, &c.PenaltyCount, &until, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	c.SuspendedUntil = timePtr(until)
	return &c, nil
}

// CreateCard inserts a card.  Number and code are both unique.
func (t *txn) CreateCard(ctx context.Context, c *model.Card) error {
	now := t.stamp()
	const q = `INSERT INTO cards (card_number, code, status, penalty_count, suspended_until, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, c.Number, c.Code, c.Status, c.PenaltyCount, nullTime(c.SuspendedUntil),
		c.Notes, now, now)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt = uint64(id), now, now
	return nil
}

func (t *txn) GetCard(ctx context.Context, id uint64) (*model.Card, error) {
	return scanCard(t.tx.QueryRowContext(ctx, `SELECT `+cardCols+` FROM cards WHERE id=?`, id))
}

func (t *txn) LockCard(ctx context.Context, id uint64) (*model.Card, error) {
	return scanCard(t.tx.QueryRowContext(ctx, `SELECT `+cardCols+` FROM cards WHERE id=? FOR UPDATE`, id))
}

func (t *txn) GetCardByCode(ctx context.Context, code string) (*model.Card, error) {
	return scanCard(t.tx.QueryRowContext(ctx, `SELECT `+cardCols+` FROM cards WHERE code=?`, code))
}

func (t *txn) GetCardByNumber(ctx context.Context, number int) (*model.Card, error) {
	return scanCard(t.tx.QueryRowContext(ctx, `SELECT `+cardCols+` FROM cards WHERE card_number=?`, number))
}

func (t *txn) UpdateCard(ctx context.Context, c *model.Card) error {
	now := t.stamp()
	const q = `UPDATE cards SET status=?, penalty_count=?, suspended_until=?, notes=?, updated_at=? WHERE id=?`
	res, err := t.tx.ExecContext(ctx, q, c.Status, c.PenaltyCount, nullTime(c.SuspendedUntil), c.Notes, now, c.ID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

func (t *txn) ListCards(ctx context.Context) ([]model.Card, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT `+cardCols+` FROM cards ORDER BY card_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
