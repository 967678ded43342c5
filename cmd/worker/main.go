// Command worker consumes notification events from RabbitMQ and appends
// the rendered messages to the outbox file.  Actual mail delivery reads
// the outbox.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/session-booking/internal/app"
	"github.com/iliyamo/session-booking/internal/config"
	"github.com/iliyamo/session-booking/internal/notify"
	"github.com/iliyamo/session-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	log := app.NewLogger(env, os.Stdout)
	cfg := config.LoadNotifyConfig()
	outbox := notify.NewOutbox(cfg.OutboxPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{
		URL:      cfg.AMQPURL,
		Queue:    cfg.Queue,
		Prefetch: 10,
		Log:      log,
		Handle: func(_ context.Context, ev queue.NotificationEvent) error {
			if err := outbox.Append(ev.Message()); err != nil {
				return err
			}
			log.Info().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Msg("notification written to outbox")
			return nil
		},
	}
	log.Info().Str("queue", cfg.Queue).Str("outbox", outbox.Path()).Msg("worker started")
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("worker stopped")
}
