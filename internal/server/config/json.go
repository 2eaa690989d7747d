package config

import (
	"encoding/json"
	"os"

	"github.com/aidemoi/aidemoi/internal/flagx"
	"github.com/aidemoi/aidemoi/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Absent or
// empty fields leave the current value untouched.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	AccessTokenTTL  string         `json:"access_token_ttl"`
	RefreshTokenTTL string         `json:"refresh_token_ttl"`
	Issuer          string         `json:"issuer"`
	Audience        string         `json:"audience"`
	BcryptCost      int            `json:"bcrypt_cost"`
	SweepInterval   timex.Duration `json:"sweep_interval"`
	OTLPEndpoint    string         `json:"otlp_endpoint"`
	LogLevel        string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AccessTokenTTL, c.AccessTokenTTL)
	setString(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.SweepInterval.Duration > 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
