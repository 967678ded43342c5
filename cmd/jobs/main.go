// Command jobs runs one maintenance job and exits.  It is meant to be
// invoked by cron or a similar scheduler:
//
//	jobs --name sweep-no-shows
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/session-booking/internal/app"
	"github.com/iliyamo/session-booking/internal/config"
	"github.com/iliyamo/session-booking/internal/jobs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var name string
	flagSet := pflag.NewFlagSet("jobs", pflag.ContinueOnError)
	flagSet.StringVarP(&name, "name", "n", "", "job to run ("+strings.Join([]string{jobs.SweepNoShows, jobs.CleanupChallenges}, ", ")+")")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if name == "" {
		return fmt.Errorf("--name is required")
	}

	_ = godotenv.Load()
	cfg := config.Load()
	log := app.NewLogger(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, app.Options{SkipRedis: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	res, err := jobs.ForEngine(a.Engine, log).Run(ctx, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
