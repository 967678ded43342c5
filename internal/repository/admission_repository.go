package repository

import (
	"context"

	"github.com/iliyamo/session-booking/internal/model"
)

// CreateAdmission appends an audit row for a door admission.
func (t *txn) CreateAdmission(ctx context.Context, a *model.Admission) error {
	const q = `INSERT INTO admissions (session_id, kind, booking_id, ticket_id, name, admitted_by, admitted_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, a.SessionID, a.Kind, nullUint(a.BookingID), nullUint(a.TicketID),
		a.Name, a.AdmittedBy, a.AdmittedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}
