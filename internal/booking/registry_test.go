package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/session-booking/internal/model"
)

func TestIsBookable(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)
	cases := []struct {
		name string
		card model.Card
		want bool
	}{
		{"active", model.Card{Status: model.CardActive}, true},
		{"locked", model.Card{Status: model.CardLocked}, false},
		{"suspended", model.Card{Status: model.CardSuspended, SuspendedUntil: &future}, false},
		{"lapsed suspension", model.Card{Status: model.CardSuspended, SuspendedUntil: &past}, true},
		{"suspended without end", model.Card{Status: model.CardSuspended}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBookable(&tc.card, now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRecordPenaltyTransitionsOnce(t *testing.T) {
	f := newFixture(t)
	c := f.card(1)
	rule := f.eng.Registry.policy.ResetRule

	_, changed, err := f.eng.Registry.RecordPenalty(f.ctx, c.ID, rule)
	if err != nil || changed {
		t.Fatalf("expected first penalty without transition, got changed=%v err=%v", changed, err)
	}
	got, changed, err := f.eng.Registry.RecordPenalty(f.ctx, c.ID, rule)
	if err != nil || !changed || got.Status != model.CardLocked {
		t.Fatalf("expected lock at threshold, got %+v changed=%v err=%v", got, changed, err)
	}
	got, changed, err = f.eng.Registry.RecordPenalty(f.ctx, c.ID, rule)
	if err != nil || changed {
		t.Fatalf("expected no second transition, got changed=%v err=%v", changed, err)
	}
	if got.PenaltyCount != 3 {
		t.Fatalf("expected count to keep rising, got %d", got.PenaltyCount)
	}
}

func TestLockAndUnlock(t *testing.T) {
	f := newFixture(t)
	c := f.card(1)
	until := f.clock.now().Add(time.Hour)
	c.Status = model.CardSuspended
	c.SuspendedUntil = &until
	c.PenaltyCount = 4
	f.updateCard(c)

	locked, err := f.eng.Registry.Lock(f.ctx, c.ID, "lost card")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if locked.Status != model.CardLocked || !strings.Contains(locked.Notes, "[2026-10-14] lost card") {
		t.Fatalf("unexpected locked card %+v", locked)
	}

	unlocked, err := f.eng.Registry.Unlock(f.ctx, c.ID)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if unlocked.Status != model.CardActive || unlocked.SuspendedUntil != nil || unlocked.PenaltyCount != 0 {
		t.Fatalf("expected clean active card, got %+v", unlocked)
	}
	if !strings.Contains(unlocked.Notes, "lost card") {
		t.Fatalf("expected notes kept, got %q", unlocked.Notes)
	}

	_, err = f.eng.Registry.Lock(f.ctx, 999, "x")
	expectErr(t, err, ErrCardNotFound)
}

func TestBookableFollowsEngineClock(t *testing.T) {
	f := newFixture(t)
	c := f.card(1)
	until := f.clock.now().Add(2 * time.Hour)
	c.Status = model.CardSuspended
	c.SuspendedUntil = &until
	f.updateCard(c)

	if f.eng.Registry.Bookable(c) {
		t.Fatal("expected suspended card to be unbookable")
	}
	f.clock.advance(2 * time.Hour)
	if !f.eng.Registry.Bookable(c) {
		t.Fatal("expected card bookable once the suspension ends")
	}
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	c := f.card(5)
	got, err := f.eng.Registry.Lookup(f.ctx, " "+c.Code+" ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Number != 5 {
		t.Fatalf("expected card 5, got %d", got.Number)
	}
	_, err = f.eng.Registry.Lookup(f.ctx, "missing")
	expectErr(t, err, ErrInvalidToken)
}

func TestProvisionFillsGaps(t *testing.T) {
	f := newFixture(t)
	existing := f.card(2)

	created, err := f.eng.Registry.Provision(f.ctx, 4, 8)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 new cards, got %d", len(created))
	}
	seen := map[string]bool{existing.Code: true}
	for _, c := range created {
		if c.Number == 2 {
			t.Fatalf("expected card 2 to be left alone")
		}
		if len(c.Code) != 8 || seen[c.Code] {
			t.Fatalf("expected unique 8-char code, got %q", c.Code)
		}
		seen[c.Code] = true
	}

	again, err := f.eng.Registry.Provision(f.ctx, 4, 8)
	if err != nil || len(again) != 0 {
		t.Fatalf("expected nothing to provision, got %d %v", len(again), err)
	}
	if _, err := f.eng.Registry.Provision(f.ctx, 0, 8); !errorsIs(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
