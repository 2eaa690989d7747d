package config

import (
	"encoding/json"
	"os"

	"github.com/aidemoi/aidemoi/internal/flagx"
	"github.com/aidemoi/aidemoi/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	StoragePath    string         `json:"storage_path"`
	CheckInterval  timex.Duration `json:"check_interval"`
	WarnBefore     timex.Duration `json:"warn_before"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	NATSURL        string         `json:"nats_url"`
	Origin         string         `json:"origin"`
}

// parseJson overlays cfg with the non-zero values of the file given by
// -c/-config. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.StoragePath != "" {
		cfg.StoragePath = jc.StoragePath
	}
	if jc.CheckInterval.Duration > 0 {
		cfg.CheckInterval = jc.CheckInterval.Duration
	}
	if jc.WarnBefore.Duration > 0 {
		cfg.WarnBefore = jc.WarnBefore.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.NATSURL != "" {
		cfg.NATSURL = jc.NATSURL
	}
	if jc.Origin != "" {
		cfg.Origin = jc.Origin
	}
}
