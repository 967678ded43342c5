package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher sends messages in the background.  Delivery failures are
// logged and never reach the caller.
type Dispatcher struct {
	n       Notifier
	log     zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps n.  timeout bounds each background send.
func NewDispatcher(n Notifier, log zerolog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{n: n, log: log, timeout: timeout}
}

// Dispatch queues msg for delivery and returns immediately.
func (d *Dispatcher) Dispatch(msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		res := d.n.Send(ctx, msg)
		switch {
		case res.Sent:
			d.log.Debug().Str("kind", string(msg.Kind)).Str("to", msg.To).Msg("notification sent")
		case res.NotConfigured():
			d.log.Info().Str("kind", string(msg.Kind)).Str("to", msg.To).Msg("notification skipped: sender not configured")
		default:
			d.log.Warn().Str("kind", string(msg.Kind)).Str("to", msg.To).Str("reason", res.Reason).Msg("notification failed")
		}
	}()
}

// Wait blocks until every dispatched message has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
