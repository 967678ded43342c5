package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/session-booking/internal/handler"
	"github.com/iliyamo/session-booking/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz reports
// that the process is up; /readyz runs the given dependency checks.
func RegisterRoutes(e *echo.Echo, checks map[string]func(context.Context) error) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(checks))
}

// PublicLimits holds the middleware applied to public routes.  Cache wraps
// the session listing; CardLookup throttles card status lookups.
type PublicLimits struct {
	Cache      echo.MiddlewareFunc
	CardLookup echo.MiddlewareFunc
}

// RegisterPublic registers the requester-facing endpoints.  None of them
// require a token; the challenge and redeem handlers are rate limited by
// the engine itself.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, m PublicLimits) {
	g := e.Group("/v1")
	g.GET("/sessions", p.ListSessions, orNoop(m.Cache))
	g.GET("/sessions/:id", p.GetSession, orNoop(m.Cache))
	g.POST("/sessions/:id/challenges", p.RequestChallenge)
	g.POST("/challenges/:id/redeem", p.Redeem)
	g.POST("/bookings/cancel", p.CancelBooking)
	g.GET("/cards/:code", p.LookupCard, orNoop(m.CardLookup))
}

// RegisterJobs mounts the job trigger behind the shared secret.
func RegisterJobs(e *echo.Echo, h *handler.JobHandler, secret string) {
	e.POST("/v1/jobs/:name", h.Run, middleware.RequireJobSecret(secret))
}

func orNoop(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m != nil {
		return m
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
}
