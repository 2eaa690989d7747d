package config

import (
	"time"

	"github.com/aidemoi/aidemoi/internal/flagx"
)

// Flags lists every command-line flag consumed by this package, including
// the JSON file selectors. The CLI strips them before command parsing.
var Flags = []string{"-a", "-f", "-i", "-w", "-t", "-n", "-o", "-c", "-config"}

// Config holds runtime settings for the AideMoi CLI.
type Config struct {
	ServerURL      string
	StoragePath    string
	CheckInterval  time.Duration
	WarnBefore     time.Duration
	RequestTimeout time.Duration
	NATSURL        string
	Origin         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.StoragePath = "aidemoi.db"
	c.CheckInterval = 5 * time.Minute
	c.WarnBefore = 60 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.NATSURL = ""
	c.Origin = "default"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	flagx.EnvString(&cfg.ServerURL, "AIDEMOI_API_URL")
	flagx.EnvString(&cfg.NATSURL, "NATS_URL")
	parseFlags(cfg)
	return cfg
}
