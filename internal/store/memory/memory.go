// Package memory is an in-process implementation of store.Store.  All
// transactions are serialized behind a single mutex and work on a copy of
// the state that replaces the committed state only when the callback
// succeeds, so a failed transaction leaves no trace.  It suits single
// instance deployments and tests; multi-instance deployments use MySQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/store"
)

type state struct {
	sessions   map[uint64]model.Session
	cards      map[uint64]model.Card
	bookings   map[uint64]model.Booking
	challenges map[string]model.Challenge
	tickets    map[uint64]model.GuestTicket
	admissions []model.Admission
	lastID     uint64
}

func newState() *state {
	return &state{
		sessions:   map[uint64]model.Session{},
		cards:      map[uint64]model.Card{},
		bookings:   map[uint64]model.Booking{},
		challenges: map[string]model.Challenge{},
		tickets:    map[uint64]model.GuestTicket{},
	}
}

// clone copies the maps.  Stored values never have their pointer fields
// mutated in place (every write stores a fresh copy), so a shallow copy
// of each map is enough.
func (s *state) clone() *state {
	c := &state{
		sessions:   make(map[uint64]model.Session, len(s.sessions)),
		cards:      make(map[uint64]model.Card, len(s.cards)),
		bookings:   make(map[uint64]model.Booking, len(s.bookings)),
		challenges: make(map[string]model.Challenge, len(s.challenges)),
		tickets:    make(map[uint64]model.GuestTicket, len(s.tickets)),
		admissions: append([]model.Admission(nil), s.admissions...),
		lastID:     s.lastID,
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.cards {
		c.cards[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.challenges {
		c.challenges[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	return c
}

// Store is the in-memory store.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store using the wall clock for timestamps.
func New() *Store { return NewWithClock(time.Now) }

// NewWithClock returns an empty store stamping rows with now().
func NewWithClock(now func() time.Time) *Store {
	return &Store{st: newState(), now: now}
}

// InTx runs fn against a private copy of the state and commits it when
// fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) nextID() uint64 {
	t.st.lastID++
	return t.st.lastID
}

func (t *tx) stamp() time.Time { return t.now().UTC() }

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUint(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyCard(c model.Card) *model.Card {
	c.SuspendedUntil = copyTime(c.SuspendedUntil)
	return &c
}

func copyBooking(b model.Booking) *model.Booking {
	b.Position = copyInt(b.Position)
	b.CheckedInAt = copyTime(b.CheckedInAt)
	return &b
}

func copyTicket(g model.GuestTicket) *model.GuestTicket {
	g.UsedAt = copyTime(g.UsedAt)
	return &g
}

func hasBookingStatus(s model.BookingStatus, set []model.BookingStatus) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func hasTicketStatus(s model.TicketStatus, set []model.TicketStatus) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// ---- sessions ----

func (t *tx) CreateSession(_ context.Context, s *model.Session) error {
	s.ID = t.nextID()
	s.CreatedAt = t.stamp()
	s.UpdatedAt = s.CreatedAt
	t.st.sessions[s.ID] = *s
	return nil
}

func (t *tx) UpdateSession(_ context.Context, s *model.Session) error {
	if _, ok := t.st.sessions[s.ID]; !ok {
		return store.ErrNotFound
	}
	s.UpdatedAt = t.stamp()
	t.st.sessions[s.ID] = *s
	return nil
}

func (t *tx) GetSession(_ context.Context, id uint64) (*model.Session, error) {
	s, ok := t.st.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (t *tx) LockSession(ctx context.Context, id uint64) (*model.Session, error) {
	return t.GetSession(ctx, id)
}

func (t *tx) ListSessions(_ context.Context, f store.SessionFilter) ([]model.Session, error) {
	out := make([]model.Session, 0)
	for _, s := range t.st.sessions {
		if f.FromDate != "" && s.Date < f.FromDate {
			continue
		}
		if f.BeforeDate != "" && s.Date >= f.BeforeDate {
			continue
		}
		if f.PublishedOnly && !s.Published {
			continue
		}
		if f.ExcludeCancel && s.Cancelled {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- cards ----

func (t *tx) CreateCard(_ context.Context, c *model.Card) error {
	for _, existing := range t.st.cards {
		if existing.Code == c.Code || existing.Number == c.Number {
			return store.ErrDuplicate
		}
	}
	c.ID = t.nextID()
	c.CreatedAt = t.stamp()
	c.UpdatedAt = c.CreatedAt
	t.st.cards[c.ID] = *copyCard(*c)
	return nil
}

func (t *tx) GetCard(_ context.Context, id uint64) (*model.Card, error) {
	c, ok := t.st.cards[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyCard(c), nil
}

func (t *tx) LockCard(ctx context.Context, id uint64) (*model.Card, error) {
	return t.GetCard(ctx, id)
}

func (t *tx) GetCardByCode(_ context.Context, code string) (*model.Card, error) {
	for _, c := range t.st.cards {
		if c.Code == code {
			return copyCard(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) GetCardByNumber(_ context.Context, number int) (*model.Card, error) {
	for _, c := range t.st.cards {
		if c.Number == number {
			return copyCard(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) UpdateCard(_ context.Context, c *model.Card) error {
	if _, ok := t.st.cards[c.ID]; !ok {
		return store.ErrNotFound
	}
	c.UpdatedAt = t.stamp()
	t.st.cards[c.ID] = *copyCard(*c)
	return nil
}

func (t *tx) ListCards(_ context.Context) ([]model.Card, error) {
	out := make([]model.Card, 0, len(t.st.cards))
	for _, c := range t.st.cards {
		out = append(out, *copyCard(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ---- bookings ----

func (t *tx) CreateBooking(ctx context.Context, b *model.Booking) error {
	if b.IsActive() {
		if _, err := t.FindActiveBooking(ctx, b.SessionID, b.CardID, b.Email); err == nil {
			return store.ErrDuplicate
		}
	}
	b.ID = t.nextID()
	b.CreatedAt = t.stamp()
	b.UpdatedAt = b.CreatedAt
	t.st.bookings[b.ID] = *copyBooking(*b)
	return nil
}

func (t *tx) GetBooking(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyBooking(b), nil
}

func (t *tx) LockBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.GetBooking(ctx, id)
}

func (t *tx) GetBookingByCancelToken(_ context.Context, token string) (*model.Booking, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	for _, b := range t.st.bookings {
		if b.CancelToken == token {
			return copyBooking(b), nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) UpdateBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.st.bookings[b.ID]; !ok {
		return store.ErrNotFound
	}
	b.UpdatedAt = t.stamp()
	t.st.bookings[b.ID] = *copyBooking(*b)
	return nil
}

func (t *tx) CountBookings(_ context.Context, sessionID uint64, statuses ...model.BookingStatus) (int, error) {
	n := 0
	for _, b := range t.st.bookings {
		if b.SessionID == sessionID && hasBookingStatus(b.Status, statuses) {
			n++
		}
	}
	return n, nil
}

func (t *tx) ListBookings(_ context.Context, sessionID uint64, statuses ...model.BookingStatus) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for _, b := range t.st.bookings {
		if b.SessionID == sessionID && hasBookingStatus(b.Status, statuses) {
			out = append(out, *copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Position, out[j].Position
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi < *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) FindActiveBooking(_ context.Context, sessionID, cardID uint64, email string) (*model.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, b := range t.st.bookings {
		if b.SessionID != sessionID || !b.IsActive() {
			continue
		}
		if b.CardID == cardID || (email != "" && strings.ToLower(b.Email) == email) {
			return copyBooking(b), nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) LockBookingForCard(_ context.Context, sessionID, cardID uint64, statuses ...model.BookingStatus) (*model.Booking, error) {
	for _, b := range t.st.bookings {
		if b.SessionID == sessionID && b.CardID == cardID && hasBookingStatus(b.Status, statuses) {
			return copyBooking(b), nil
		}
	}
	return nil, store.ErrNotFound
}

// ---- challenges ----

func (t *tx) CreateChallenge(_ context.Context, c *model.Challenge) error {
	if _, ok := t.st.challenges[c.ID]; ok {
		return store.ErrDuplicate
	}
	c.CreatedAt = t.stamp()
	t.st.challenges[c.ID] = *c
	return nil
}

func (t *tx) GetChallenge(_ context.Context, id string) (*model.Challenge, error) {
	c, ok := t.st.challenges[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) LockChallenge(ctx context.Context, id string) (*model.Challenge, error) {
	return t.GetChallenge(ctx, id)
}

func (t *tx) UpdateChallenge(_ context.Context, c *model.Challenge) error {
	if _, ok := t.st.challenges[c.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.challenges[c.ID] = *c
	return nil
}

func (t *tx) DeleteChallenge(_ context.Context, id string) error {
	delete(t.st.challenges, id)
	return nil
}

func (t *tx) DeleteOpenChallenges(_ context.Context, email string, sessionID uint64) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var n int64
	for id, c := range t.st.challenges {
		if !c.Verified && c.SessionID == sessionID && c.Email == email {
			delete(t.st.challenges, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteExpiredChallenges(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, c := range t.st.challenges {
		if !c.Verified && c.ExpiresAt.Before(cutoff) {
			delete(t.st.challenges, id)
			n++
		}
	}
	return n, nil
}

// ---- guest tickets ----

func (t *tx) CreateGuestTicket(_ context.Context, g *model.GuestTicket) error {
	for _, existing := range t.st.tickets {
		if existing.Code == g.Code {
			return store.ErrDuplicate
		}
	}
	g.ID = t.nextID()
	g.CreatedAt = t.stamp()
	t.st.tickets[g.ID] = *copyTicket(*g)
	return nil
}

func (t *tx) CountGuestTickets(_ context.Context, sessionID uint64, statuses ...model.TicketStatus) (int, error) {
	n := 0
	for _, g := range t.st.tickets {
		if g.SessionID == sessionID && hasTicketStatus(g.Status, statuses) {
			n++
		}
	}
	return n, nil
}

func (t *tx) ListGuestTickets(_ context.Context, sessionID uint64, statuses ...model.TicketStatus) ([]model.GuestTicket, error) {
	out := make([]model.GuestTicket, 0)
	for _, g := range t.st.tickets {
		if g.SessionID == sessionID && hasTicketStatus(g.Status, statuses) {
			out = append(out, *copyTicket(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) LockGuestTicketByCode(_ context.Context, sessionID uint64, code string) (*model.GuestTicket, error) {
	for _, g := range t.st.tickets {
		if g.SessionID == sessionID && g.Code == code {
			return copyTicket(g), nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) UpdateGuestTicket(_ context.Context, g *model.GuestTicket) error {
	if _, ok := t.st.tickets[g.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.tickets[g.ID] = *copyTicket(*g)
	return nil
}

// ---- admissions ----

func (t *tx) CreateAdmission(_ context.Context, a *model.Admission) error {
	a.ID = t.nextID()
	cp := *a
	cp.BookingID = copyUint(a.BookingID)
	cp.TicketID = copyUint(a.TicketID)
	t.st.admissions = append(t.st.admissions, cp)
	return nil
}

// Admissions returns a snapshot of the audit trail.
func (s *Store) Admissions() []model.Admission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Admission(nil), s.st.admissions...)
}
