package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

const bookingCols = `id, session_id, card_id, name, email, phone, status, position, checked_in_at,
    cancel_token, created_at, updated_at`

func scanBooking(row scanner) (*model.Booking, error) {
	var (
		b         model.Booking
		position  sql.NullInt64
		checkedIn sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.SessionID, &b.CardID, &b.Name, &b.Email, &b.Phone, &b.Status, &position,
		&checkedIn, &b.CancelToken, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	b.Position = intPtr(position)
	b.CheckedInAt = timePtr(checkedIn)
	return &b, nil
}

func (t *txn) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateBooking inserts b.  The unique keys on the generated active_card
// and active_email columns reject a second active booking for the same
// card or email on a session.
func (t *txn) CreateBooking(ctx context.Context, b *model.Booking) error {
	now := t.stamp()
	const q = `INSERT INTO bookings (session_id, card_id, name, email, phone, status, position, checked_in_at,
        cancel_token, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, b.SessionID, b.CardID, b.Name, strings.ToLower(b.Email), b.Phone, b.Status,
		nullInt(b.Position), nullTime(b.CheckedInAt), b.CancelToken, now, now)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID, b.CreatedAt, b.UpdatedAt = uint64(id), now, now
	return nil
}

func (t *txn) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id=?`, id))
}

func (t *txn) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(t.tx.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id=? FOR UPDATE`, id))
}

func (t *txn) GetBookingByCancelToken(ctx context.Context, token string) (*model.Booking, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return scanBooking(t.tx.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE cancel_token=?`, token))
}

func (t *txn) UpdateBooking(ctx context.Context, b *model.Booking) error {
	now := t.stamp()
	const q = `UPDATE bookings SET status=?, position=?, checked_in_at=?, name=?, phone=?, updated_at=? WHERE id=?`
	res, err := t.tx.ExecContext(ctx, q, b.Status, nullInt(b.Position), nullTime(b.CheckedInAt), b.Name, b.Phone, now, b.ID)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	b.UpdatedAt = now
	return nil
}

func (t *txn) CountBookings(ctx context.Context, sessionID uint64, statuses ...model.BookingStatus) (int, error) {
	cond, args := inClause("status", statuses)
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE session_id=? AND `+cond,
		append([]any{sessionID}, args...)...).Scan(&n)
	return n, err
}

func (t *txn) ListBookings(ctx context.Context, sessionID uint64, statuses ...model.BookingStatus) ([]model.Booking, error) {
	cond, args := inClause("status", statuses)
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE session_id=? AND ` + cond +
		` ORDER BY position IS NULL, position, id`
	return t.queryBookings(ctx, q, append([]any{sessionID}, args...)...)
}

func (t *txn) FindActiveBooking(ctx context.Context, sessionID, cardID uint64, email string) (*model.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	cond, args := inClause("status", model.ActiveBookingStatuses)
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE session_id=? AND ` + cond +
		` AND (card_id=? OR (?<>'' AND email=?)) ORDER BY id LIMIT 1`
	all := append([]any{sessionID}, args...)
	all = append(all, cardID, email, email)
	return scanBooking(t.tx.QueryRowContext(ctx, q, all...))
}

func (t *txn) LockBookingForCard(ctx context.Context, sessionID, cardID uint64, statuses ...model.BookingStatus) (*model.Booking, error) {
	cond, args := inClause("status", statuses)
	q := `SELECT ` + bookingCols + ` FROM bookings WHERE session_id=? AND card_id=? AND ` + cond +
		` ORDER BY id DESC LIMIT 1 FOR UPDATE`
	all := append([]any{sessionID, cardID}, args...)
	return scanBooking(t.tx.QueryRowContext(ctx, q, all...))
}
