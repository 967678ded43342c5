package app

import (
	"net"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/session-booking/internal/handler"
	"github.com/iliyamo/session-booking/internal/jobs"
	"github.com/iliyamo/session-booking/internal/middleware"
	"github.com/iliyamo/session-booking/internal/router"
	"github.com/iliyamo/session-booking/internal/validator"
)

// cardLookupScope namespaces the public card status limiter.
const cardLookupScope = "card.lookup"

// NewServer builds the Echo instance with every route mounted.
func NewServer(a *App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.Echo{}
	e.IPExtractor = ipExtractor(a.Config.TrustedProxies)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.BodyLimit("64K"))
	e.Use(middleware.RequestLogger(a.Log))

	router.RegisterRoutes(e, a.Checks())

	limits := router.PublicLimits{
		CardLookup: middleware.NewRateLimit(a.RateLimit, a.Limiter, cardLookupScope,
			a.RateLimit.CardLookupMax, a.RateLimit.CardLookupWindow, a.Log),
	}
	// A nil *redis.Client must not reach the cache as a non-nil interface.
	if a.Redis != nil {
		limits.Cache = middleware.NewRedisCache(a.Cache, a.Redis, a.Log)
	}
	router.RegisterPublic(e, handler.NewPublicHandler(a.Engine, a.Log), limits)
	router.RegisterStaff(e, handler.NewStaffHandler(a.Engine, a.Log), a.Config.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(a.Engine, a.Log), a.Config.JWTSecret)
	router.RegisterJobs(e, &handler.JobHandler{Jobs: jobs.ForEngine(a.Engine, a.Log), Log: a.Log}, a.Config.JobSecret)
	return e
}

// ipExtractor uses the peer address unless trusted proxies are
// configured, in which case X-Forwarded-For is walked back only through
// those networks.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
