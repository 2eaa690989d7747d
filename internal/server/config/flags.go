package config

import (
	"flag"
	"os"

	"github.com/aidemoi/aidemoi/internal/flagx"
	"github.com/aidemoi/aidemoi/internal/timex"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or "memory" for the in-process store
//	-s string   JWT HMAC secret key
//	-t string   access token lifetime (e.g., "15m", "24h")
//	-r string   refresh token lifetime (e.g., "7d")
//	-w string   expired token sweep interval (e.g., "1h"; "0" disables)
//	-l string   log level
//	-o string   OTLP/HTTP trace endpoint
//
// os.Args is filtered through flagx.FilterArgs first so that -c/-config and
// foreign flags do not make parsing fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-w", "-l", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token lifetime")
	fs.StringVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token lifetime")
	sweep := fs.String("w", config.SweepInterval.String(), "expired token sweep interval")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OTLPEndpoint, "o", config.OTLPEndpoint, "OTLP trace endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	d, err := timex.ParseDuration(*sweep)
	if err != nil {
		panic(err)
	}
	config.SweepInterval = d
}
