package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

const ticketCols = `id, session_id, code, name, contact, allocated_by, status, used_at, created_at`

func scanTicket(row scanner) (*model.GuestTicket, error) {
	var (
		g      model.GuestTicket
		usedAt sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.SessionID, &g.Code, &g.Name, &g.Contact, &g.AllocatedBy, &g.Status, &usedAt,
		&g.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	g.UsedAt = timePtr(usedAt)
	return &g, nil
}

// CreateGuestTicket inserts g.  A code collision returns store.ErrDuplicate.
func (t *txn) CreateGuestTicket(ctx context.Context, g *model.GuestTicket) error {
	now := t.stamp()
	const q = `INSERT INTO guest_tickets (session_id, code, name, contact, allocated_by, status, used_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, g.SessionID, g.Code, g.Name, g.Contact, g.AllocatedBy, g.Status,
		nullTime(g.UsedAt), now)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID, g.CreatedAt = uint64(id), now
	return nil
}

func (t *txn) CountGuestTickets(ctx context.Context, sessionID uint64, statuses ...model.TicketStatus) (int, error) {
	cond, args := inClause("status", statuses)
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guest_tickets WHERE session_id=? AND `+cond,
		append([]any{sessionID}, args...)...).Scan(&n)
	return n, err
}

func (t *txn) ListGuestTickets(ctx context.Context, sessionID uint64, statuses ...model.TicketStatus) ([]model.GuestTicket, error) {
	cond, args := inClause("status", statuses)
	rows, err := t.tx.QueryContext(ctx, `SELECT `+ticketCols+` FROM guest_tickets WHERE session_id=? AND `+cond+` ORDER BY id`,
		append([]any{sessionID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.GuestTicket, 0)
	for rows.Next() {
		g, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (t *txn) LockGuestTicketByCode(ctx context.Context, sessionID uint64, code string) (*model.GuestTicket, error) {
	return scanTicket(t.tx.QueryRowContext(ctx,
		`SELECT `+ticketCols+` FROM guest_tickets WHERE session_id=? AND code=? FOR UPDATE`, sessionID, code))
}

func (t *txn) UpdateGuestTicket(ctx context.Context, g *model.GuestTicket) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE guest_tickets SET status=?, used_at=? WHERE id=?`,
		g.Status, nullTime(g.UsedAt), g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
