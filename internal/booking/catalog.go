package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

// SessionInput holds the staff-editable fields of a session.
type SessionInput struct {
	Title             string
	Date              string
	StartTime         string
	EndTime           string
	ConfirmedCapacity int
	WaitlistCapacity  int
	GuestCapacity     int
	Published         bool
}

func (in SessionInput) validate() (SessionInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, Invalidf("title is required")
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return in, Invalidf("date must be YYYY-MM-DD")
	}
	start, err := time.Parse("15:04", in.StartTime)
	if err != nil {
		return in, Invalidf("start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", in.EndTime)
	if err != nil {
		return in, Invalidf("end_time must be HH:MM")
	}
	if !end.After(start) {
		return in, Invalidf("end_time must be after start_time")
	}
	if in.ConfirmedCapacity < 1 {
		return in, Invalidf("confirmed_capacity must be at least 1")
	}
	if in.WaitlistCapacity < 0 || in.GuestCapacity < 0 {
		return in, Invalidf("capacities cannot be negative")
	}
	return in, nil
}

// SessionView is a session with its live occupancy.
type SessionView struct {
	model.Session
	ConfirmedCount int `json:"confirmed_count"`
	WaitlistCount  int `json:"waitlist_count"`
	GuestIssued    int `json:"guest_issued"`
	SeatsLeft      int `json:"seats_left"`
	WaitlistLeft   int `json:"waitlist_left"`
}

// Catalog manages sessions.
type Catalog struct {
	*core
}

// Create inserts a new session.
func (c *Catalog) Create(ctx context.Context, in SessionInput) (*model.Session, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	s := &model.Session{}
	apply(s, in)
	err = c.store.InTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateSession(ctx, s); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Uint64("session_id", s.ID).Str("date", s.Date).Msg("session created")
	return s, nil
}

// Update replaces a session's fields.  Once any booking exists, schedule
// and capacity changes are refused unless override is set.
func (c *Catalog) Update(ctx context.Context, id uint64, in SessionInput, override bool) (*model.Session, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	var out *model.Session
	err = c.store.InTx(ctx, func(tx store.Tx) error {
		s, err := lockSession(ctx, tx, id)
		if err != nil {
			return err
		}
		if !override && locksSchedule(s, in) {
			n, err := tx.CountBookings(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("count bookings: %w", err)
			}
			if n > 0 {
				return ErrSessionLocked
			}
		}
		apply(s, in)
		if err := tx.UpdateSession(ctx, s); err != nil {
			return fmt.Errorf("update session %d: %w", s.ID, err)
		}
		out = s
		return nil
	})
	return out, err
}

// SetPublished shows or hides a session from public listings.
func (c *Catalog) SetPublished(ctx context.Context, id uint64, published bool) (*model.Session, error) {
	return c.mutate(ctx, id, func(s *model.Session) { s.Published = published })
}

// Cancel flags a session as cancelled.  Its bookings are kept.
func (c *Catalog) Cancel(ctx context.Context, id uint64) (*model.Session, error) {
	s, err := c.mutate(ctx, id, func(s *model.Session) { s.Cancelled = true })
	if err == nil {
		c.log.Info().Uint64("session_id", id).Msg("session cancelled")
	}
	return s, err
}

func (c *Catalog) mutate(ctx context.Context, id uint64, fn func(*model.Session)) (*model.Session, error) {
	var out *model.Session
	err := c.store.InTx(ctx, func(tx store.Tx) error {
		s, err := lockSession(ctx, tx, id)
		if err != nil {
			return err
		}
		fn(s)
		if err := tx.UpdateSession(ctx, s); err != nil {
			return fmt.Errorf("update session %d: %w", s.ID, err)
		}
		out = s
		return nil
	})
	return out, err
}

// Get returns any session with its counts.
func (c *Catalog) Get(ctx context.Context, id uint64) (*SessionView, error) {
	var out *SessionView
	err := c.store.InTx(ctx, func(tx store.Tx) error {
		s, err := tx.GetSession(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session %d: %w", id, err)
		}
		out, err = viewOf(ctx, tx, *s)
		return err
	})
	return out, err
}

// PublicView returns a session only if it is open for booking.
func (c *Catalog) PublicView(ctx context.Context, id uint64) (*SessionView, error) {
	v, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.isOpen(&v.Session) {
		return nil, ErrSessionNotFound
	}
	return v, nil
}

// ListUpcoming returns published, non-cancelled sessions from today on.
func (c *Catalog) ListUpcoming(ctx context.Context) ([]SessionView, error) {
	return c.list(ctx, store.SessionFilter{FromDate: c.today(), PublishedOnly: true, ExcludeCancel: true})
}

// ListAll returns every session for staff.
func (c *Catalog) ListAll(ctx context.Context) ([]SessionView, error) {
	return c.list(ctx, store.SessionFilter{})
}

func (c *Catalog) list(ctx context.Context, f store.SessionFilter) ([]SessionView, error) {
	var out []SessionView
	err := c.store.InTx(ctx, func(tx store.Tx) error {
		sessions, err := tx.ListSessions(ctx, f)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		out = make([]SessionView, 0, len(sessions))
		for _, s := range sessions {
			v, err := viewOf(ctx, tx, s)
			if err != nil {
				return err
			}
			out = append(out, *v)
		}
		return nil
	})
	return out, err
}

// Bookings returns every booking of a session in queue order.
func (c *Catalog) Bookings(ctx context.Context, sessionID uint64) ([]model.Booking, error) {
	var out []model.Booking
	err := c.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetSession(ctx, sessionID); errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		} else if err != nil {
			return fmt.Errorf("get session %d: %w", sessionID, err)
		}
		bookings, err := tx.ListBookings(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		out = bookings
		return nil
	})
	return out, err
}

func viewOf(ctx context.Context, tx store.Tx, s model.Session) (*SessionView, error) {
	confirmed, err := tx.CountBookings(ctx, s.ID, model.BookingConfirmed, model.BookingCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("count confirmed: %w", err)
	}
	waiting, err := tx.CountBookings(ctx, s.ID, model.BookingWaitlist)
	if err != nil {
		return nil, fmt.Errorf("count waitlist: %w", err)
	}
	guests, err := tx.CountGuestTickets(ctx, s.ID, model.TicketValid, model.TicketUsed)
	if err != nil {
		return nil, fmt.Errorf("count guest tickets: %w", err)
	}
	return &SessionView{
		Session:        s,
		ConfirmedCount: confirmed,
		WaitlistCount:  waiting,
		GuestIssued:    guests,
		SeatsLeft:      max(s.ConfirmedCapacity-confirmed, 0),
		WaitlistLeft:   max(s.WaitlistCapacity-waiting, 0),
	}, nil
}

func locksSchedule(s *model.Session, in SessionInput) bool {
	return s.Date != in.Date || s.StartTime != in.StartTime || s.EndTime != in.EndTime ||
		s.ConfirmedCapacity != in.ConfirmedCapacity || s.WaitlistCapacity != in.WaitlistCapacity ||
		s.GuestCapacity != in.GuestCapacity
}

func apply(s *model.Session, in SessionInput) {
	s.Title = in.Title
	s.Date = in.Date
	s.StartTime = in.StartTime
	s.EndTime = in.EndTime
	s.ConfirmedCapacity = in.ConfirmedCapacity
	s.WaitlistCapacity = in.WaitlistCapacity
	s.GuestCapacity = in.GuestCapacity
	s.Published = in.Published
}
