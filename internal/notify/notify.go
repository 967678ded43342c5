// Package notify defines the outbound notification contract used by the
// booking engine and the concrete senders that do not need a broker.
package notify

import "context"

// Kind identifies a message template.
type Kind string

const (
	KindVerificationCode Kind = "verification_code"
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingWaitlist  Kind = "booking_waitlisted"
	KindWaitlistPromoted Kind = "waitlist_promoted"
	KindBookingCancelled Kind = "booking_cancelled"
)

// Message is a single notification addressed to one recipient.  Data holds
// the template fields (code, session_title, session_date, ...).
type Message struct {
	Kind Kind              `json:"kind"`
	To   string            `json:"to"`
	Data map[string]string `json:"data"`
}

// ReasonNotConfigured is reported by senders that have no transport.
const ReasonNotConfigured = "not_configured"

// Result reports whether a message left the process.
type Result struct {
	Sent   bool
	Reason string
}

// NotConfigured reports the no-op case, which callers treat as success.
func (r Result) NotConfigured() bool { return !r.Sent && r.Reason == ReasonNotConfigured }

// Failed reports a real delivery failure.
func (r Result) Failed() bool { return !r.Sent && r.Reason != ReasonNotConfigured }

// Notifier delivers a message and never panics; failures are reported in
// the Result.
type Notifier interface {
	Send(ctx context.Context, msg Message) Result
}

// Disabled accepts every message without sending it.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) Result {
	return Result{Reason: ReasonNotConfigured}
}
