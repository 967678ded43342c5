package model

import "time"

// BookingStatus is the state of a reservation.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingWaitlist  BookingStatus = "waitlist"
	BookingCancelled BookingStatus = "cancelled"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingNoShow    BookingStatus = "no_show"
)

// ActiveBookingStatuses are the states that hold a claim on a session.
// A card or an email may appear at most once among them per session.
var ActiveBookingStatuses = []BookingStatus{BookingConfirmed, BookingWaitlist, BookingCheckedIn}

// Booking records a requester's claim on a session's confirmed or
// waitlisted capacity.
//
// Fields:
//  ID          – primary key identifier.
//  SessionID   – session being booked.
//  CardID      – card used for the booking.
//  Name        – requester name.
//  Email       – requester email (lower-cased).
//  Phone       – requester phone (optional).
//  Status      – see BookingStatus.
//  Position    – waitlist position, set only while Status is waitlist.
//  CheckedInAt – admission timestamp (nullable).
//  CancelToken – secret mailed to the requester for self-service cancellation.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64        `json:"id"`                      // bookings.id
	SessionID   uint64        `json:"session_id"`              // bookings.session_id
	CardID      uint64        `json:"card_id"`                 // bookings.card_id
	Name        string        `json:"name"`                    // bookings.name
	Email       string        `json:"email"`                   // bookings.email
	Phone       string        `json:"phone,omitempty"`         // bookings.phone
	Status      BookingStatus `json:"status"`                  // bookings.status
	Position    *int          `json:"position,omitempty"`      // bookings.position (nullable)
	CheckedInAt *time.Time    `json:"checked_in_at,omitempty"` // bookings.checked_in_at (nullable)
	CancelToken string        `json:"-"`                       // bookings.cancel_token
	CreatedAt   time.Time     `json:"created_at"`              // bookings.created_at
	UpdatedAt   time.Time     `json:"updated_at"`              // bookings.updated_at
}

// IsActive reports whether the booking still holds a claim on its session.
func (b *Booking) IsActive() bool {
	for _, s := range ActiveBookingStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}
