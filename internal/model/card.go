package model

import "time"

// CardStatus is the lifecycle state of an access card.
type CardStatus string

const (
	CardActive    CardStatus = "active"
	CardLocked    CardStatus = "locked"
	CardSuspended CardStatus = "suspended"
)

// Card is a physical access credential from the fixed card pool.  The
// number is printed on the card and used at the door; the code is the
// opaque value a holder types when booking online.
//
// Fields:
//  ID             – primary key identifier.
//  Number         – printed card number (1..pool size).
//  Code           – opaque booking code, unique.
//  Status         – active, locked or suspended.
//  PenaltyCount   – no-shows counted since the last unlock.
//  SuspendedUntil – end of a timed suspension (nullable).
//  Notes          – free-text staff notes, newest last.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Card struct {
	ID             uint64     `json:"id"`                        // cards.id
	Number         int        `json:"number"`                    // cards.card_number
	Code           string     `json:"-"`                         // cards.code
	Status         CardStatus `json:"status"`                    // cards.status
	PenaltyCount   int        `json:"penalty_count"`             // cards.penalty_count
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"` // cards.suspended_until (nullable)
	Notes          string     `json:"notes"`                     // cards.notes
	CreatedAt      time.Time  `json:"created_at"`                // cards.created_at
	UpdatedAt      time.Time  `json:"updated_at"`                // cards.updated_at
}
