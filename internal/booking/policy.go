package booking

import "time"

// Restriction is the state a penalty rule moves a card into.
type Restriction int

const (
	RestrictSuspend Restriction = iota
	RestrictLock
)

// PenaltyRule describes one no-show consequence.  When a card's penalty
// count reaches Threshold while it is active, Action is applied once.
type PenaltyRule struct {
	Threshold  int
	Action     Restriction
	SuspendFor time.Duration
	Note       string
}

// Limit is a fixed-window rate limit.
type Limit struct {
	Max    int
	Window time.Duration
}

// Policy holds the tunable parameters of the engine.
type Policy struct {
	ChallengeTTL     time.Duration
	CleanupGrace     time.Duration
	MaxCardNumber    int
	TicketCodeLength int
	RequestLimit     Limit
	RedeemLimit      Limit
	SweepRule        PenaltyRule
	ResetRule        PenaltyRule
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		ChallengeTTL:     15 * time.Minute,
		CleanupGrace:     time.Hour,
		MaxCardNumber:    300,
		TicketCodeLength: 8,
		RequestLimit:     Limit{Max: 5, Window: 15 * time.Minute},
		RedeemLimit:      Limit{Max: 10, Window: 15 * time.Minute},
		SweepRule: PenaltyRule{
			Threshold:  3,
			Action:     RestrictSuspend,
			SuspendFor: 30 * 24 * time.Hour,
			Note:       "suspended after repeated no-shows",
		},
		ResetRule: PenaltyRule{
			Threshold: 2,
			Action:    RestrictLock,
			Note:      "locked after repeated no-shows",
		},
	}
}
