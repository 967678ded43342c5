package booking

import (
	"testing"
)

func validInput() SessionInput {
	return SessionInput{
		Title:             "Evening Recording",
		Date:              "2026-10-20",
		StartTime:         "18:00",
		EndTime:           "20:30",
		ConfirmedCapacity: 40,
		WaitlistCapacity:  10,
		GuestCapacity:     5,
		Published:         true,
	}
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*SessionInput)
	}{
		{"missing title", func(in *SessionInput) { in.Title = " " }},
		{"bad date", func(in *SessionInput) { in.Date = "20/10/2026" }},
		{"bad start", func(in *SessionInput) { in.StartTime = "6pm" }},
		{"end before start", func(in *SessionInput) { in.EndTime = "17:00" }},
		{"zero capacity", func(in *SessionInput) { in.ConfirmedCapacity = 0 }},
		{"negative waitlist", func(in *SessionInput) { in.WaitlistCapacity = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.eng.Catalog.Create(f.ctx, in)
			expectErr(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateLockedOnceBooked(t *testing.T) {
	f := newFixture(t)
	s, err := f.eng.Catalog.Create(f.ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.allocate(s.ID, f.card(1))

	in := validInput()
	in.Title = "Renamed"
	if _, err := f.eng.Catalog.Update(f.ctx, s.ID, in, false); err != nil {
		t.Fatalf("expected title change allowed, got %v", err)
	}

	in.ConfirmedCapacity = 20
	_, err = f.eng.Catalog.Update(f.ctx, s.ID, in, false)
	expectErr(t, err, ErrSessionLocked)

	got, err := f.eng.Catalog.Update(f.ctx, s.ID, in, true)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.ConfirmedCapacity != 20 || got.Title != "Renamed" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestListUpcomingHidesClosedSessions(t *testing.T) {
	f := newFixture(t)
	visible := f.session(today, 1, 0, 0)
	f.session("2026-10-13", 1, 0, 0)
	hidden := f.session("2026-10-16", 1, 0, 0)
	if _, err := f.eng.Catalog.SetPublished(f.ctx, hidden.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	cancelled := f.session("2026-10-17", 1, 0, 0)
	if _, err := f.eng.Catalog.Cancel(f.ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	list, err := f.eng.Catalog.ListUpcoming(f.ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != visible.ID {
		t.Fatalf("expected only session %d, got %+v", visible.ID, list)
	}
	all, _ := f.eng.Catalog.ListAll(f.ctx)
	if len(all) != 4 {
		t.Fatalf("expected 4 sessions for staff, got %d", len(all))
	}
	_, err = f.eng.Catalog.PublicView(f.ctx, hidden.ID)
	expectErr(t, err, ErrSessionNotFound)
}
