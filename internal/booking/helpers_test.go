package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/ratelimit"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/store/memory"
)

const today = "2026-10-14"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeNotifier struct {
	mu     sync.Mutex
	msgs   []notify.Message
	result notify.Result
}

func (f *fakeNotifier) Send(_ context.Context, m notify.Message) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
	if f.result == (notify.Result{}) {
		return notify.Result{Sent: true}
	}
	return f.result
}

func (f *fakeNotifier) fail(reason string) {
	f.mu.Lock()
	f.result = notify.Result{Reason: reason}
	f.mu.Unlock()
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	f.result = notify.Result{}
	f.mu.Unlock()
}

// lastCode returns the most recent verification code sent to email.
func (f *fakeNotifier) lastCode(t *testing.T, email string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		m := f.msgs[i]
		if m.Kind == notify.KindVerificationCode && m.To == email {
			return m.Data["code"]
		}
	}
	t.Fatalf("no verification code sent to %s", email)
	return ""
}

func (f *fakeNotifier) count(kind notify.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	eng   *Engine
	st    *memory.Store
	clock *fakeClock
	notes *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)}
	st := memory.NewWithClock(clock.now)
	notes := &fakeNotifier{}
	eng := New(Deps{
		Store:    st,
		Limiter:  ratelimit.NewMemoryWithClock(clock.now),
		Notifier: notes,
		Log:      zerolog.Nop(),
		Now:      clock.now,
		Location: time.UTC,
		Policy:   DefaultPolicy(),
	})
	return &fixture{t: t, ctx: context.Background(), eng: eng, st: st, clock: clock, notes: notes}
}

func (f *fixture) session(date string, confirmed, waitlist, guests int) *model.Session {
	f.t.Helper()
	s, err := f.eng.Catalog.Create(f.ctx, SessionInput{
		Title:             "Session " + date,
		Date:              date,
		StartTime:         "18:00",
		EndTime:           "20:00",
		ConfirmedCapacity: confirmed,
		WaitlistCapacity:  waitlist,
		GuestCapacity:     guests,
		Published:         true,
	})
	if err != nil {
		f.t.Fatalf("create session: %v", err)
	}
	return s
}

func (f *fixture) card(number int) *model.Card {
	f.t.Helper()
	c := &model.Card{Number: number, Code: fmt.Sprintf("CODE-%03d", number), Status: model.CardActive}
	if err := f.st.InTx(f.ctx, func(tx store.Tx) error { return tx.CreateCard(f.ctx, c) }); err != nil {
		f.t.Fatalf("create card: %v", err)
	}
	return c
}

func (f *fixture) updateCard(c *model.Card) {
	f.t.Helper()
	if err := f.st.InTx(f.ctx, func(tx store.Tx) error { return tx.UpdateCard(f.ctx, c) }); err != nil {
		f.t.Fatalf("update card: %v", err)
	}
}

func (f *fixture) booking(id uint64) *model.Booking {
	f.t.Helper()
	var b *model.Booking
	if err := f.st.InTx(f.ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.GetBooking(f.ctx, id)
		return err
	}); err != nil {
		f.t.Fatalf("get booking %d: %v", id, err)
	}
	return b
}

func (f *fixture) allocate(sessionID uint64, card *model.Card) *Outcome {
	f.t.Helper()
	out, err := f.eng.Allocator.Allocate(f.ctx, sessionID, card.ID, requester(card.Number))
	if err != nil {
		f.t.Fatalf("allocate card %d: %v", card.Number, err)
	}
	return out
}

func (f *fixture) wait() {
	f.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.eng.Wait(ctx); err != nil {
		f.t.Fatalf("wait for notifications: %v", err)
	}
}

func requester(n int) Requester {
	return Requester{Name: fmt.Sprintf("Person %d", n), Email: fmt.Sprintf("p%d@example.com", n)}
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", want)
	}
	if !errorsIs(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
