package config

import (
	"flag"
	"os"
	"time"

	"github.com/aidemoi/aidemoi/internal/flagx"
	"github.com/aidemoi/aidemoi/internal/timex"
)

// parseFlags populates Config fields from command-line flags. Duration flags
// accept the timex.ParseDuration forms ("5m", "60s", "1500ms").
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-i", "-w", "-t", "-n", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the auth API")
	fs.StringVar(&cfg.StoragePath, "f", cfg.StoragePath, "local session database")
	checkInterval := fs.String("i", cfg.CheckInterval.String(), "token expiry check interval")
	warnBefore := fs.String("w", cfg.WarnBefore.String(), "warning window before expiry")
	requestTimeout := fs.String("t", cfg.RequestTimeout.String(), "HTTP request timeout")
	fs.StringVar(&cfg.NATSURL, "n", cfg.NATSURL, "NATS URL for expiry events")
	fs.StringVar(&cfg.Origin, "o", cfg.Origin, "origin scoping expiry events")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CheckInterval = mustDuration(*checkInterval)
	cfg.WarnBefore = mustDuration(*warnBefore)
	cfg.RequestTimeout = mustDuration(*requestTimeout)
}

func mustDuration(s string) time.Duration {
	d, err := timex.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}
