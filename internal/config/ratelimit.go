package config

import "time"

// Rate limiter backends.
const (
	LimiterRedis  = "redis"
	LimiterMemory = "memory"
)

// RateLimitConfig selects the limiter backend and the limits applied by
// the HTTP middleware.  Engine limits live in BookingConfig.
type RateLimitConfig struct {
	Enabled          bool
	Backend          string
	Prefix           string
	CardLookupMax    int
	CardLookupWindow time.Duration
	Debug            bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:          envBool("RATE_LIMIT_ENABLED", true),
		Backend:          envStr("RATE_LIMIT_BACKEND", LimiterRedis),
		Prefix:           envStr("RATE_LIMIT_PREFIX", "rl"),
		CardLookupMax:    envInt("RATE_LIMIT_CARD_LOOKUP_MAX", 30),
		CardLookupWindow: envDur("RATE_LIMIT_CARD_LOOKUP_WINDOW", time.Minute),
		Debug:            envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Backend != LimiterRedis && def.Backend != LimiterMemory {
		def.Backend = LimiterMemory
	}
	if def.CardLookupMax < 1 {
		def.CardLookupMax = 1
	}
	if def.CardLookupWindow <= 0 {
		def.CardLookupWindow = time.Minute
	}
	return def
}
