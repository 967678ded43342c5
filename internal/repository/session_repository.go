package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

const sessionCols = `id, title, session_date, start_time, end_time, confirmed_capacity, waitlist_capacity,
    guest_capacity, published, cancelled, created_at, updated_at`

func scanSession(row scanner) (*model.Session, error) {
	var (
		s    model.Session
		date time.Time
	)
	if err := row.Scan(&s.ID, &s.Title, &date, &s.StartTime, &s.EndTime, &s.ConfirmedCapacity,
		&s.WaitlistCapacity, &s.GuestCapacity, &s.Published, &s.Cancelled, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	s.Date = date.Format("2006-01-02")
	return &s, nil
}

// CreateSession inserts s and fills its ID and timestamps.
func (t *txn) CreateSession(ctx context.Context, s *model.Session) error {
	now := t.stamp()
	const q = `INSERT INTO sessions (title, session_date, start_time, end_time, confirmed_capacity,
        waitlist_capacity, guest_capacity, published, cancelled, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, s.Title, s.Date, s.StartTime, s.EndTime, s.ConfirmedCapacity,
		s.WaitlistCapacity, s.GuestCapacity, s.Published, s.Cancelled, now, now)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = uint64(id), now, now
	return nil
}

func (t *txn) UpdateSession(ctx context.Context, s *model.Session) error {
	now := t.stamp()
	const q = `UPDATE sessions SET title=?, session_date=?, start_time=?, end_time=?, confirmed_capacity=?,
        waitlist_capacity=?, guest_capacity=?, published=?, cancelled=?, updated_at=? WHERE id=?`
	res, err := t.tx.ExecContext(ctx, q, s.Title, s.Date, s.StartTime, s.EndTime, s.ConfirmedCapacity,
		s.WaitlistCapacity, s.GuestCapacity, s.Published, s.Cancelled, now, s.ID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (t *txn) GetSession(ctx context.Context, id uint64) (*model.Session, error) {
	return scanSession(t.tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=?`, id))
}

// LockSession is the serialization point for capacity changes.
func (t *txn) LockSession(ctx context.Context, id uint64) (*model.Session, error) {
	return scanSession(t.tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=? FOR UPDATE`, id))
}

func (t *txn) ListSessions(ctx context.Context, f store.SessionFilter) ([]model.Session, error) {
	var (
		where []string
		args  []any
	)
	if f.FromDate != "" {
		where = append(where, "session_date >= ?")
		args = append(args, f.FromDate)
	}
	if f.BeforeDate != "" {
		where = append(where, "session_date < ?")
		args = append(args, f.BeforeDate)
	}
	if f.PublishedOnly {
		where = append(where, "published = 1")
	}
	if f.ExcludeCancel {
		where = append(where, "cancelled = 0")
	}
	q := `SELECT ` + sessionCols + ` FROM sessions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY session_date, start_time, id`

	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
