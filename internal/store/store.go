// Package store defines the transactional persistence contract used by the
// booking engine.  Every engine operation runs inside Store.InTx; the Tx
// handed to the callback sees its own writes and commits only when the
// callback returns nil.
//
// Two implementations exist: repository.Store (MySQL, row locks via
// SELECT ... FOR UPDATE) and memory.Store (single process, all
// transactions serialized behind one mutex).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule
// (active booking per card/email, ticket code, card code).
var ErrDuplicate = errors.New("store: duplicate")

// Store opens transactions.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// SessionFilter narrows ListSessions.  Zero values disable a condition.
type SessionFilter struct {
	FromDate      string // Date >= FromDate
	BeforeDate    string // Date < BeforeDate
	PublishedOnly bool
	ExcludeCancel bool
}

// Tx is the set of operations available inside a transaction.  Lock*
// methods take an exclusive row lock held until the transaction ends.
type Tx interface {
	CreateSession(ctx context.Context, s *model.Session) error
	UpdateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id uint64) (*model.Session, error)
	LockSession(ctx context.Context, id uint64) (*model.Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]model.Session, error)

	CreateCard(ctx context.Context, c *model.Card) error
	GetCard(ctx context.Context, id uint64) (*model.Card, error)
	LockCard(ctx context.Context, id uint64) (*model.Card, error)
	GetCardByCode(ctx context.Context, code string) (*model.Card, error)
	GetCardByNumber(ctx context.Context, number int) (*model.Card, error)
	UpdateCard(ctx context.Context, c *model.Card) error
	ListCards(ctx context.Context) ([]model.Card, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	LockBooking(ctx context.Context, id uint64) (*model.Booking, error)
	GetBookingByCancelToken(ctx context.Context, token string) (*model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	CountBookings(ctx context.Context, sessionID uint64, statuses ...model.BookingStatus) (int, error)
	// ListBookings returns bookings ordered by waitlist position (nulls
	// last) and then by ID.  No statuses means all statuses.
	ListBookings(ctx context.Context, sessionID uint64, statuses ...model.BookingStatus) ([]model.Booking, error)
	// FindActiveBooking returns an active booking on the session held by
	// the card or by the email (case-insensitive).
	FindActiveBooking(ctx context.Context, sessionID, cardID uint64, email string) (*model.Booking, error)
	// LockBookingForCard returns and locks the card's booking on the
	// session whose status is one of statuses.
	LockBookingForCard(ctx context.Context, sessionID, cardID uint64, statuses ...model.BookingStatus) (*model.Booking, error)

	CreateChallenge(ctx context.Context, c *model.Challenge) error
	GetChallenge(ctx context.Context, id string) (*model.Challenge, error)
	LockChallenge(ctx context.Context, id string) (*model.Challenge, error)
	UpdateChallenge(ctx context.Context, c *model.Challenge) error
	DeleteChallenge(ctx context.Context, id string) error
	// DeleteOpenChallenges removes unverified challenges for the pair.
	DeleteOpenChallenges(ctx context.Context, email string, sessionID uint64) (int64, error)
	// DeleteExpiredChallenges removes unverified challenges that expired
	// before the cutoff.
	DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error)

	CreateGuestTicket(ctx context.Context, t *model.GuestTicket) error
	CountGuestTickets(ctx context.Context, sessionID uint64, statuses ...model.TicketStatus) (int, error)
	ListGuestTickets(ctx context.Context, sessionID uint64, statuses ...model.TicketStatus) ([]model.GuestTicket, error)
	LockGuestTicketByCode(ctx context.Context, sessionID uint64, code string) (*model.GuestTicket, error)
	UpdateGuestTicket(ctx context.Context, t *model.GuestTicket) error

	CreateAdmission(ctx context.Context, a *model.Admission) error
}
