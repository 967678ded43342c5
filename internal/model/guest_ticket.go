package model

import "time"

// TicketStatus is the state of a guest ticket.
type TicketStatus string

const (
	TicketValid   TicketStatus = "valid"
	TicketUsed    TicketStatus = "used"
	TicketExpired TicketStatus = "expired"
)

// GuestTicket is a card-free admission credential issued by staff from a
// session's guest pool.
//
// Fields:
//  ID          – primary key identifier.
//  SessionID   – session the ticket admits to.
//  Code        – redemption code, unique across all tickets.
//  Name        – guest name.
//  Contact     – guest contact details (free text).
//  AllocatedBy – who the ticket was allocated on behalf of.
//  Status      – valid, used or expired.
//  UsedAt      – redemption timestamp (nullable).
//  CreatedAt   – creation timestamp.
type GuestTicket struct {
	ID          uint64       `json:"id"`                // guest_tickets.id
	SessionID   uint64       `json:"session_id"`        // guest_tickets.session_id
	Code        string       `json:"code"`              // guest_tickets.code
	Name        string       `json:"name"`              // guest_tickets.name
	Contact     string       `json:"contact,omitempty"` // guest_tickets.contact
	AllocatedBy string       `json:"allocated_by"`      // guest_tickets.allocated_by
	Status      TicketStatus `json:"status"`            // guest_tickets.status
	UsedAt      *time.Time   `json:"used_at,omitempty"` // guest_tickets.used_at (nullable)
	CreatedAt   time.Time    `json:"created_at"`        // guest_tickets.created_at
}
