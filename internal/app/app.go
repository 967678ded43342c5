// Package app assembles the service from configuration.  The server, the
// job runner and the admin tool share it so they see the same store,
// limiter and notifier choices.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/booking"
	"github.com/iliyamo/session-booking/internal/config"
	"github.com/iliyamo/session-booking/internal/database"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/queue"
	"github.com/iliyamo/session-booking/internal/ratelimit"
	"github.com/iliyamo/session-booking/internal/repository"
	"github.com/iliyamo/session-booking/internal/store"
	"github.com/iliyamo/session-booking/internal/store/memory"
)

// NewLogger returns the process logger: JSON with timestamps, or a
// console writer in development.
func NewLogger(env string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if env == "dev" || env == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// App holds the wired dependencies of a process.
type App struct {
	Config    config.Config
	Booking   config.BookingConfig
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Notify    config.NotifyConfig
	Log       zerolog.Logger

	DB       *sql.DB       // nil with the memory store
	Redis    *redis.Client // nil when no component needs Redis or it is unreachable
	Store    store.Store
	Limiter  ratelimit.Limiter
	Notifier notify.Notifier
	Engine   *booking.Engine

	closers []func() error
}

// Options tune Build for processes that need less than the full server.
type Options struct {
	// SkipRedis builds without Redis, using the in-memory limiter.
	SkipRedis bool
	// Now overrides the engine clock.
	Now func() time.Time
}

// Build loads the feature configuration sections and wires the engine.
// Redis failures degrade to the in-memory limiter and no response cache;
// a database failure is fatal for the caller.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{
		Config:    cfg,
		Booking:   config.LoadBookingConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Notify:    config.LoadNotifyConfig(),
		Log:       log,
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = st

	if !opts.SkipRedis && (a.RateLimit.Backend == config.LimiterRedis || a.Cache.Enabled) {
		a.connectRedis()
	}
	a.Limiter = a.newLimiter()
	a.Notifier = a.newNotifier()

	a.Engine = booking.New(booking.Deps{
		Store:    a.Store,
		Limiter:  a.Limiter,
		Notifier: a.Notifier,
		Log:      log,
		Now:      opts.Now,
		Location: cfg.Location(),
		Policy:   a.Booking.Policy(),
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.Config.StoreDriver == config.StoreMemory {
		a.Log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
	c := a.Config
	db, err := database.Open(c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	if c.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.Log.Info().Strs("applied", applied).Msg("migrations up to date")
	}
	return repository.NewStore(db, a.Log), nil
}

func (a *App) connectRedis() {
	rc := config.LoadRedisConfig()
	rdb, err := config.NewRedisClient(rc)
	if err != nil {
		a.Log.Warn().Err(err).Msg("redis unavailable; falling back to in-memory limiter and no response cache")
		return
	}
	a.Redis = rdb
	a.closers = append(a.closers, rdb.Close)
	a.Log.Info().Str("addr", rc.Addr).Msg("connected to redis")
}

func (a *App) newLimiter() ratelimit.Limiter {
	if !a.RateLimit.Enabled {
		return ratelimit.Unlimited{}
	}
	if a.RateLimit.Backend == config.LimiterRedis && a.Redis != nil {
		return ratelimit.NewRedis(a.Redis, a.RateLimit.Prefix)
	}
	return ratelimit.NewMemory()
}

func (a *App) newNotifier() notify.Notifier {
	switch a.Notify.Driver {
	case config.NotifyAMQP:
		p := queue.NewPublisher(a.Notify.AMQPURL, a.Notify.Queue, a.Log, a.Notify.PublishTimeout)
		a.closers = append(a.closers, p.Close)
		return p
	case config.NotifyOutbox:
		return notify.NewOutbox(a.Notify.OutboxPath)
	default:
		a.Log.Warn().Msg("notifications disabled; verification codes will not be delivered")
		return notify.Disabled{}
	}
}

// Checks returns the readiness probes of the wired backends.
func (a *App) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.DB != nil {
		checks["mysql"] = a.DB.PingContext
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close waits for in-flight notifications and releases connections in
// reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Engine != nil {
		if err := a.Engine.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("wait for notifications: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
