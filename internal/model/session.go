package model

import "time"

// Session represents a scheduled recording session with a fixed number
// of seats.  Capacity is split into three independent pools: confirmed
// seats, waitlist slots and staff-allocated guest tickets.  A session is
// never hard-deleted once bookings exist; cancellation is a flag.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – display name of the session.
//  Date              – calendar day of the session (YYYY-MM-DD, site timezone).
//  StartTime         – local start time (HH:MM).
//  EndTime           – local end time (HH:MM).
//  ConfirmedCapacity – number of confirmed seats.
//  WaitlistCapacity  – maximum waitlist length.
//  GuestCapacity     – number of guest tickets staff may issue.
//  Published         – whether the session is visible and bookable.
//  Cancelled         – soft-delete flag.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Session struct {
	ID                uint64    `json:"id"`                 // sessions.id
	Title             string    `json:"title"`              // sessions.title
	Date              string    `json:"date"`               // sessions.session_date
	StartTime         string    `json:"start_time"`         // sessions.start_time
	EndTime           string    `json:"end_time"`           // sessions.end_time
	ConfirmedCapacity int       `json:"confirmed_capacity"` // sessions.confirmed_capacity
	WaitlistCapacity  int       `json:"waitlist_capacity"`  // sessions.waitlist_capacity
	GuestCapacity     int       `json:"guest_capacity"`     // sessions.guest_capacity
	Published         bool      `json:"published"`          // sessions.published
	Cancelled         bool      `json:"cancelled"`          // sessions.cancelled
	CreatedAt         time.Time `json:"created_at"`         // sessions.created_at
	UpdatedAt         time.Time `json:"updated_at"`         // sessions.updated_at
}
