package config

import (
	"time"

	"github.com/iliyamo/session-booking/internal/booking"
)

// BookingConfig holds the engine rules that operators may tune.
type BookingConfig struct {
	ChallengeTTL     time.Duration
	CleanupGrace     time.Duration
	CardPoolSize     int
	TicketCodeLength int
	RequestMax       int
	RequestWindow    time.Duration
	RedeemMax        int
	RedeemWindow     time.Duration
	SweepThreshold   int
	SuspensionDays   int
	ResetThreshold   int
}

// LoadBookingConfig reads BOOKING_* variables, falling back to the
// production defaults.
func LoadBookingConfig() BookingConfig {
	def := booking.DefaultPolicy()
	cfg := BookingConfig{
		ChallengeTTL:     envDur("BOOKING_CHALLENGE_TTL", def.ChallengeTTL),
		CleanupGrace:     envDur("BOOKING_CLEANUP_GRACE", def.CleanupGrace),
		CardPoolSize:     envInt("BOOKING_CARD_POOL_SIZE", def.MaxCardNumber),
		TicketCodeLength: envInt("BOOKING_TICKET_CODE_LENGTH", def.TicketCodeLength),
		RequestMax:       envInt("BOOKING_REQUEST_LIMIT", def.RequestLimit.Max),
		RequestWindow:    envDur("BOOKING_REQUEST_WINDOW", def.RequestLimit.Window),
		RedeemMax:        envInt("BOOKING_REDEEM_LIMIT", def.RedeemLimit.Max),
		RedeemWindow:     envDur("BOOKING_REDEEM_WINDOW", def.RedeemLimit.Window),
		SweepThreshold:   envInt("BOOKING_NOSHOW_THRESHOLD", def.SweepRule.Threshold),
		SuspensionDays:   envInt("BOOKING_SUSPENSION_DAYS", int(def.SweepRule.SuspendFor/(24*time.Hour))),
		ResetThreshold:   envInt("BOOKING_RESET_THRESHOLD", def.ResetRule.Threshold),
	}
	if cfg.CardPoolSize < 1 {
		cfg.CardPoolSize = def.MaxCardNumber
	}
	if cfg.TicketCodeLength < 6 {
		cfg.TicketCodeLength = def.TicketCodeLength
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = def.ChallengeTTL
	}
	return cfg
}

// Policy converts the configuration into engine rules.
func (c BookingConfig) Policy() booking.Policy {
	p := booking.DefaultPolicy()
	p.ChallengeTTL = c.ChallengeTTL
	p.CleanupGrace = c.CleanupGrace
	p.MaxCardNumber = c.CardPoolSize
	p.TicketCodeLength = c.TicketCodeLength
	p.RequestLimit = booking.Limit{Max: c.RequestMax, Window: c.RequestWindow}
	p.RedeemLimit = booking.Limit{Max: c.RedeemMax, Window: c.RedeemWindow}
	p.SweepRule.Threshold = c.SweepThreshold
	p.SweepRule.SuspendFor = time.Duration(c.SuspensionDays) * 24 * time.Hour
	p.ResetRule.Threshold = c.ResetThreshold
	return p
}
