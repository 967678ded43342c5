package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/config"
	"github.com/iliyamo/session-booking/internal/ratelimit"
)

// NewRateLimit limits requests per client address against a fixed window.
// scope namespaces the counter so separate routes do not share a budget.
// Limiter errors fail open.
func NewRateLimit(cfg config.RateLimitConfig, lim ratelimit.Limiter, scope string, max int, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || lim == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(scope, c)
			res, err := lim.Check(c.Request().Context(), key, max, window)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				secs := retrySeconds(res.RetryAfter(time.Now()))
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					log.Info().Str("key", key).Int("retry_after", secs).Msg("rate limit block")
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}

			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// retrySeconds rounds up so a client never retries before the window resets.
func retrySeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func buildRateKey(scope string, c echo.Context) string {
	return scope + ":" + ClientAddr(c)
}
