// Package config loads runtime configuration for the AideMoi client CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. AIDEMOI_API_URL and NATS_URL environment variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the auth API
//	-f string   path of the local SQLite session database
//	-i string   token expiry check interval (e.g. "5m")
//	-w string   warning window before expiry (e.g. "60s")
//	-t string   HTTP request timeout (e.g. "10s")
//	-n string   NATS URL for cross-process expiry events ("" disables)
//	-o string   origin name scoping expiry events
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "5m" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "storage_path": "aidemoi.db",
//	  "check_interval": "5m",
//	  "warn_before": "60s",
//	  "request_timeout": "10s",
//	  "nats_url": "nats://127.0.0.1:4222",
//	  "origin": "default"
//	}
package config
