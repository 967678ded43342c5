package model

import "time"

// AdmissionKind tells which credential was consumed at the door.
type AdmissionKind string

const (
	AdmissionCard  AdmissionKind = "card"
	AdmissionGuest AdmissionKind = "guest"
)

// Admission is the audit record written for every successful check-in.
type Admission struct {
	ID         uint64        // admissions.id
	SessionID  uint64        // admissions.session_id
	Kind       AdmissionKind // admissions.kind
	BookingID  *uint64       // admissions.booking_id (nullable)
	TicketID   *uint64       // admissions.ticket_id (nullable)
	Name       string        // admissions.name
	AdmittedBy string        // admissions.admitted_by
	AdmittedAt time.Time     // admissions.admitted_at
}
