// Command admin provides operator tasks that have no HTTP surface:
//
//	admin provision-cards --count 300
//	admin staff-token --name karin --role STAFF
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/session-booking/internal/app"
	"github.com/iliyamo/session-booking/internal/config"
	"github.com/iliyamo/session-booking/internal/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}
	_ = godotenv.Load()
	switch args[0] {
	case "provision-cards":
		return provisionCards(args[1:])
	case "staff-token":
		return staffToken(args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  admin provision-cards [--count N] [--code-length N]
  admin staff-token --name NAME [--role STAFF|ADMIN] [--ttl DURATION]
`)
}

// provisionCards creates missing cards and prints number,code pairs as CSV
// so they can be printed onto the physical cards.
func provisionCards(args []string) error {
	bc := config.LoadBookingConfig()
	var count, codeLen int
	flagSet := pflag.NewFlagSet("provision-cards", pflag.ContinueOnError)
	flagSet.IntVar(&count, "count", bc.CardPoolSize, "size of the card pool")
	flagSet.IntVar(&codeLen, "code-length", 10, "length of generated booking codes")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	log := app.NewLogger(cfg.Env, os.Stderr)
	ctx := context.Background()
	a, err := app.Build(ctx, cfg, log, app.Options{SkipRedis: true})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(ctx) }()

	created, err := a.Engine.Registry.Provision(ctx, count, codeLen)
	w := csv.NewWriter(os.Stdout)
	_ = w.Write([]string{"number", "code"})
	for _, c := range created {
		_ = w.Write([]string{strconv.Itoa(c.Number), c.Code})
	}
	w.Flush()
	if err != nil {
		return err
	}
	return w.Error()
}

func staffToken(args []string) error {
	var name, role string
	var ttl time.Duration
	flagSet := pflag.NewFlagSet("staff-token", pflag.ContinueOnError)
	flagSet.StringVar(&name, "name", "", "staff member name recorded on audit rows")
	flagSet.StringVar(&role, "role", utils.RoleStaff, "STAFF or ADMIN")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime (default STAFF_TOKEN_TTL_MIN)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("--name is required")
	}

	cfg := config.Load()
	if ttl <= 0 {
		ttl = cfg.StaffTokenTTL
	}
	tok, err := utils.NewStaffToken(cfg.JWTSecret, name, role, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
	return nil
}
