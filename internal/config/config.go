package config // package config loads application configuration from environment variables

import (
	"net"
	"os" // os provides access to environment variables
	"time"

	"github.com/rs/zerolog/log" // log reports configuration errors and halts execution
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable.  Feature sections (booking rules, rate limits,
// cache, redis, notifications) have their own loaders.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	Timezone      string        // IANA zone that defines "today" for sessions
	StoreDriver   string        // "mysql" or "memory"
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	AutoMigrate   bool          // apply embedded migrations at startup
	JWTSecret     string        // secret used to verify staff JWTs
	JobSecret     string        // shared secret for the job trigger endpoint
	StaffTokenTTL time.Duration // lifetime of tokens minted by cmd/admin

	// TrustedProxies lists the networks whose X-Forwarded-For header is
	// believed.  Empty means the peer address is the client address.
	TrustedProxies []*net.IPNet
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database settings
// are only required for the mysql driver.
func Load() Config {
	cfg := Config{
		Env:           envStr("APP_ENV", "dev"),
		Port:          envStr("APP_PORT", "8080"),
		Timezone:      envStr("APP_TIMEZONE", "UTC"),
		StoreDriver:   envStr("STORE_DRIVER", StoreMySQL),
		AutoMigrate:   envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:     must("JWT_SECRET"),
		JobSecret:     os.Getenv("JOB_SECRET"),
		StaffTokenTTL: time.Duration(envInt("STAFF_TOKEN_TTL_MIN", 720)) * time.Minute,
	}
	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("STORE_DRIVER must be mysql or memory")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid APP_TIMEZONE")
	}
	proxies, err := ParseCIDRs(envList("TRUSTED_PROXY_CIDRS"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXY_CIDRS")
	}
	cfg.TrustedProxies = proxies
	return cfg
}

// ParseCIDRs parses each entry as a CIDR block.  A bare address is taken
// as a single host.
func ParseCIDRs(entries []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, e := range entries {
		if ip := net.ParseIP(e); ip != nil {
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Location returns the configured time zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatal().Str("key", key).Msg("missing required env var")
	}
	return v
}
