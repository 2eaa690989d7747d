package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":         "www.example:9000",
		"database_dsn":      "memory",
		"secret_key":        "my_secret_key",
		"access_token_ttl":  "15m",
		"refresh_token_ttl": "30d",
		"issuer":            "issuer",
		"audience":          "audience",
		"bcrypt_cost":       10,
		"sweep_interval":    "30m",
		"otlp_endpoint":     "collector:4318",
		"log_level":         "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "memory", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "15m", cfg.AccessTokenTTL)
		assert.Equal(t, "30d", cfg.RefreshTokenTTL)
		assert.Equal(t, "issuer", cfg.Issuer)
		assert.Equal(t, "audience", cfg.Audience)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
		assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"secret_key": "only-this",
		})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "24h", cfg.AccessTokenTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, time.Hour, cfg.SweepInterval)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			HTTPAddr:        "defaults:1234",
			DatabaseDSN:     "dsn",
			SecretKey:       "key",
			AccessTokenTTL:  "2m",
			RefreshTokenTTL: "3m",
			BcryptCost:      4,
			SweepInterval:   time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, "2m", cfg.AccessTokenTTL)
		assert.Equal(t, "3m", cfg.RefreshTokenTTL)
		assert.Equal(t, 4, cfg.BcryptCost)
		assert.Equal(t, time.Minute, cfg.SweepInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
