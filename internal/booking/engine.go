// Package booking implements the reservation engine: card registry,
// email verification, capacity allocation with a FIFO waitlist,
// cancellation and promotion, no-show reconciliation, door admission and
// the guest ticket pool.
//
// Every operation runs in a single store transaction.  Operations that
// change a session's capacity accounting (allocation, cancellation,
// guest issuing, reconciliation) lock the session row first, so they
// serialize per session while different sessions proceed in parallel.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/model"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/ratelimit"
	"github.com/iliyamo/session-booking/internal/store"
)

const dateLayout = "2006-01-02"

// Deps are the collaborators of the engine.  Only Store is required.
type Deps struct {
	Store    store.Store
	Limiter  ratelimit.Limiter
	Notifier notify.Notifier
	Log      zerolog.Logger
	Now      func() time.Time
	Location *time.Location
	Policy   Policy
}

// Engine groups the engine components over shared dependencies.
type Engine struct {
	Registry   *Registry
	Gate       *Gate
	Allocator  *Allocator
	Promoter   *Promoter
	Reconciler *Reconciler
	Checkpoint *Checkpoint
	Guests     *GuestDesk
	Catalog    *Catalog

	dispatcher *notify.Dispatcher
}

// New wires an engine.  Zero-valued optional dependencies fall back to an
// unlimited limiter, a disabled notifier, the wall clock, UTC and
// DefaultPolicy.
func New(d Deps) *Engine {
	if d.Limiter == nil {
		d.Limiter = ratelimit.Unlimited{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Disabled{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Policy == (Policy{}) {
		d.Policy = DefaultPolicy()
	}
	c := &core{
		store:    d.Store,
		limiter:  d.Limiter,
		notifier: d.Notifier,
		log:      d.Log,
		clock:    d.Now,
		loc:      d.Location,
		policy:   d.Policy,
	}
	c.async = notify.NewDispatcher(d.Notifier, d.Log.With().Str("component", "notify").Logger(), 10*time.Second)

	reg := &Registry{core: c}
	alloc := &Allocator{core: c}
	return &Engine{
		Registry:   reg,
		Gate:       &Gate{core: c, alloc: alloc},
		Allocator:  alloc,
		Promoter:   &Promoter{core: c},
		Reconciler: &Reconciler{core: c, registry: reg},
		Checkpoint: &Checkpoint{core: c},
		Guests:     &GuestDesk{core: c},
		Catalog:    &Catalog{core: c},
		dispatcher: c.async,
	}
}

// Wait blocks until background notifications have been handed off.
func (e *Engine) Wait(ctx context.Context) error { return e.dispatcher.Wait(ctx) }

// core carries what every component needs.
type core struct {
	store    store.Store
	limiter  ratelimit.Limiter
	notifier notify.Notifier
	async    *notify.Dispatcher
	log      zerolog.Logger
	clock    func() time.Time
	loc      *time.Location
	policy   Policy
}

func (c *core) now() time.Time { return c.clock().UTC() }

// today is the current calendar date in the configured location.
func (c *core) today() string { return c.clock().In(c.loc).Format(dateLayout) }

// isOpen reports whether a session accepts new bookings.
func (c *core) isOpen(s *model.Session) bool {
	return s.Published && !s.Cancelled && s.Date >= c.today()
}

// throttle counts one request against key under limit.  Limiter outages
// are logged and let the request through.
func (c *core) throttle(ctx context.Context, key string, limit Limit) error {
	if limit.Max <= 0 {
		return nil
	}
	res, err := c.limiter.Check(ctx, key, limit.Max, limit.Window)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
		return nil
	}
	if !res.Allowed {
		return &RateLimitedError{RetryAfter: res.RetryAfter(c.clock())}
	}
	return nil
}

// notifyLater queues msg for background delivery.
func (c *core) notifyLater(msg notify.Message) {
	if msg.To == "" {
		return
	}
	c.async.Dispatch(msg)
}

// lockSession locks the session row, mapping a missing row to
// ErrSessionNotFound.
func lockSession(ctx context.Context, tx store.Tx, id uint64) (*model.Session, error) {
	s, err := tx.LockSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session %d: %w", id, err)
	}
	return s, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func sessionData(s *model.Session) map[string]string {
	return map[string]string{
		"session_title": s.Title,
		"session_date":  s.Date,
		"start_time":    s.StartTime,
	}
}
