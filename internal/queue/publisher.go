package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/notify"
)

// Publisher sends notifications to a durable RabbitMQ queue.  It keeps one
// connection open, dialling lazily and again after the broker drops it.
// Publishes wait for a broker confirm, so a nil error means the message
// is on disk.
type Publisher struct {
	url     string
	queue   string
	log     zerolog.Logger
	timeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher.  No connection is made until the
// first Send.
func NewPublisher(url, queue string, log zerolog.Logger, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{url: url, queue: queue, log: log, timeout: timeout}
}

// Send implements notify.Notifier.
func (p *Publisher) Send(ctx context.Context, msg notify.Message) notify.Result {
	ev := NewEvent(msg, time.Now())
	body, err := json.Marshal(ev)
	if err != nil {
		return notify.Result{Reason: fmt.Sprintf("marshal event: %v", err)}
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.publish(ctx, body); err != nil {
		p.log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("rabbitmq: publish failed")
		return notify.Result{Reason: err.Error()}
	}
	p.log.Debug().Str("event_id", ev.ID).Str("kind", string(msg.Kind)).Msg("rabbitmq: event published")
	return notify.Result{Sent: true}
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish: %w", err)
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("await confirm: %w", err)
	}
	if !acked {
		return errors.New("broker rejected message")
	}
	return nil
}

// channelLocked returns an open confirm-mode channel, dialling if needed.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	p.conn, p.ch = conn, ch
	p.log.Info().Str("queue", p.queue).Msg("rabbitmq: publisher connected")
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
