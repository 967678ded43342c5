package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
)

func TestCheckInCardPath(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 1, 0)
	f.allocate(s.ID, f.card(7))
	f.allocate(s.ID, f.card(8))
	f.card(9)

	res, err := f.eng.Checkpoint.CheckIn(f.ctx, s.ID, " 7 ", "door-1")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if res.Type != model.AdmissionCard || res.CardNumber != 7 || res.Name != "Person 7" {
		t.Fatalf("unexpected result %+v", res)
	}

	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "7", "door-1")
	expectErr(t, err, ErrAlreadyCheckedIn)
	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "8", "door-1")
	expectErr(t, err, ErrOnWaitlist)
	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "9", "door-1")
	expectErr(t, err, ErrNoReservation)
	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "120", "door-1")
	expectErr(t, err, ErrNoReservation)

	audit := f.st.Admissions()
	if len(audit) != 1 || audit[0].Kind != model.AdmissionCard || audit[0].AdmittedBy != "door-1" {
		t.Fatalf("expected one card admission, got %+v", audit)
	}
}

func TestCheckInGuestPath(t *testing.T) {
	f := newFixture(t)
	s := f.session(today, 1, 0, 2)
	ticket, err := f.eng.Guests.Issue(f.ctx, s.ID, GuestRequest{Name: "Guest One", AllocatedBy: "host"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	scanned := "https://tickets.example.com/t/" + strings.ToLower(ticket.Code)
	res, err := f.eng.Checkpoint.CheckIn(f.ctx, s.ID, scanned, "door-2")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if res.Type != model.AdmissionGuest || res.Name != "Guest One" || res.AllocatedBy != "host" {
		t.Fatalf("unexpected result %+v", res)
	}

	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, ticket.Code, "door-2")
	expectErr(t, err, ErrTicketUsed)
	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "ZZZZZZZZ", "door-2")
	expectErr(t, err, ErrInvalidCode)

	other, err := f.eng.Guests.Issue(f.ctx, s.ID, GuestRequest{Name: "Guest Two"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.eng.Reconciler.Reset(f.ctx, s.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_, err = f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "https://x.example/?ticket="+other.Code, "door-2")
	expectErr(t, err, ErrTicketExpired)
}

func TestCheckInOnlyOnSessionDay(t *testing.T) {
	f := newFixture(t)
	s := f.session("2026-10-15", 1, 0, 0)
	f.allocate(s.ID, f.card(1))

	_, err := f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "1", "door")
	expectErr(t, err, ErrNotSessionDay)

	f.clock.advance(24 * time.Hour)
	if _, err := f.eng.Checkpoint.CheckIn(f.ctx, s.ID, "1", "door"); err != nil {
		t.Fatalf("expected check in on session day, got %v", err)
	}

	_, err = f.eng.Checkpoint.CheckIn(f.ctx, 999, "1", "door")
	expectErr(t, err, ErrSessionNotFound)
}

func TestExtractCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  42 ", "42"},
		{"ABCD2345", "ABCD2345"},
		{"https://example.com/checkin?code=XYZ12345", "XYZ12345"},
		{"https://example.com/checkin?ticket=T0K3N", "T0K3N"},
		{"https://example.com/t/abcd2345/", "abcd2345"},
		{"https://example.com/t/abcd2345?utm=1", "abcd2345"},
	}
	for _, tc := range cases {
		if got := extractCode(tc.in); got != tc.want {
			t.Fatalf("extractCode(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
