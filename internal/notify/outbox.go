package notify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"
)

var templates = map[Kind]string{
	KindVerificationCode: `Your verification code for "{{.session_title}}" on {{.session_date}} is {{.code}}. It expires at {{.expires_at}}.`,
	KindBookingConfirmed: `Hi {{.name}}, your seat for "{{.session_title}}" on {{.session_date}} at {{.start_time}} is confirmed. Cancel with token {{.cancel_token}}.`,
	KindBookingWaitlist:  `Hi {{.name}}, "{{.session_title}}" on {{.session_date}} is full. You are number {{.position}} on the waitlist. Cancel with token {{.cancel_token}}.`,
	KindWaitlistPromoted: `Hi {{.name}}, a seat opened up for "{{.session_title}}" on {{.session_date}} at {{.start_time}}. Your booking is now confirmed.`,
	KindBookingCancelled: `Hi {{.name}}, your booking for "{{.session_title}}" on {{.session_date}} has been cancelled.`,
}

var parsed = func() map[Kind]*template.Template {
	out := make(map[Kind]*template.Template, len(templates))
	for k, src := range templates {
		out[k] = template.Must(template.New(string(k)).Option("missingkey=zero").Parse(src))
	}
	return out
}()

// Render formats msg as a single human-readable sentence.
func Render(msg Message) (string, error) {
	t, ok := parsed[msg.Kind]
	if !ok {
		return "", fmt.Errorf("notify: unknown message kind %q", msg.Kind)
	}
	data := make(map[string]string, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", msg.Kind, err)
	}
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// Outbox appends rendered messages to a local file, one per line.  It is
// the delivery end of the queue worker and can also be used directly as a
// Notifier when no broker is deployed.
type Outbox struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewOutbox returns an outbox writing to path (default logs/outbox.log).
func NewOutbox(path string) *Outbox {
	if path == "" {
		path = filepath.Join("logs", "outbox.log")
	}
	return &Outbox{path: path, now: time.Now}
}

// Path returns the file the outbox appends to.
func (o *Outbox) Path() string { return o.path }

// Append renders msg and writes it to the outbox file.
func (o *Outbox) Append(msg Message) error {
	text, err := Render(msg)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] %s | to=%s | %s\n", o.now().UTC().Format(time.RFC3339), msg.Kind, msg.To, text)

	o.mu.Lock()
	defer o.mu.Unlock()
	if dir := filepath.Dir(o.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("notify: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("notify: open outbox: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("notify: write outbox: %w", err)
	}
	return nil
}

func (o *Outbox) Send(_ context.Context, msg Message) Result {
	if err := o.Append(msg); err != nil {
		return Result{Reason: err.Error()}
	}
	return Result{Sent: true}
}
