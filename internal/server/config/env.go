package config

import "github.com/aidemoi/aidemoi/internal/flagx"

// Environment variables recognised by parseEnv.
const (
	EnvHTTPAddr     = "HTTP_ADDR"
	EnvDatabaseURL  = "DATABASE_URL"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiresIn = "JWT_EXPIRES_IN"
	EnvJWTRefreshIn = "JWT_REFRESH_EXPIRES_IN"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvLogLevel     = "LOG_LEVEL"
)

func parseEnv(config *Config) {
	flagx.EnvString(&config.HTTPAddr, EnvHTTPAddr)
	flagx.EnvString(&config.DatabaseDSN, EnvDatabaseURL)
	flagx.EnvString(&config.SecretKey, EnvJWTSecret)
	flagx.EnvString(&config.AccessTokenTTL, EnvJWTExpiresIn)
	flagx.EnvString(&config.RefreshTokenTTL, EnvJWTRefreshIn)
	flagx.EnvString(&config.OTLPEndpoint, EnvOTLPEndpoint)
	flagx.EnvString(&config.LogLevel, EnvLogLevel)
}
