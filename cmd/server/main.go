package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/session-booking/internal/app"
	"github.com/iliyamo/session-booking/internal/config"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load()
	log := app.NewLogger(cfg.Env, os.Stdout)

	a, err := app.Build(context.Background(), cfg, log, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	e := app.NewServer(a)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := a.Close(ctx); err != nil {
		log.Error().Err(err).Msg("close dependencies")
	}
	log.Info().Msg("shutdown complete")
}
