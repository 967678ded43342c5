// Package queue carries outbound notifications over RabbitMQ.  The API
// publishes NotificationEvents to a durable queue; the worker consumes
// them and hands each to a delivery function.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/session-booking/internal/notify"
)

// NotificationEvent is the wire payload of one outbound message.  It
// contains everything the worker needs to render and deliver the message
// without querying the primary database.
type NotificationEvent struct {
	ID        string            `json:"id"`
	Kind      notify.Kind       `json:"kind"`
	To        string            `json:"to"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt string            `json:"created_at"`
}

// NewEvent wraps msg with a fresh ID and timestamp.
func NewEvent(msg notify.Message, now time.Time) NotificationEvent {
	return NotificationEvent{
		ID:        uuid.NewString(),
		Kind:      msg.Kind,
		To:        msg.To,
		Data:      msg.Data,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// Message converts the event back to a notify.Message.
func (e NotificationEvent) Message() notify.Message {
	return notify.Message{Kind: e.Kind, To: e.To, Data: e.Data}
}

// DecodeEvent parses and validates a delivery body.
func DecodeEvent(body []byte) (NotificationEvent, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.To == "" {
		return ev, fmt.Errorf("event %q missing kind or recipient", ev.ID)
	}
	return ev, nil
}
