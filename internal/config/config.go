package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the base server configuration.
type Config struct {
	Host                     string
	Port                     string
	SQLiteDBPath             string
	AllowTestMode            bool
	JWTSecret                string
	JWTAccessTokenExpirySec  int
	JWTRefreshTokenExpirySec int

	// SonosAPIBase is the Sonos Control API root used by the control proxy.
	SonosAPIBase   string
	SonosTimeoutMs int

	// HubSendBuffer is the per-subscriber outbound queue depth. A subscriber
	// that falls this many messages behind is disconnected.
	HubSendBuffer int

	AuditRetentionDays int
	// AuditPruneSchedule is a cron expression for the retention prune job.
	AuditPruneSchedule string
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		Host:                     envString("HOST", "0.0.0.0"),
		Port:                     envString("PORT", "9000"),
		SQLiteDBPath:             envString("SQLITE_DB_PATH", "./data/sonos-relay.db"),
		AllowTestMode:            envBool("ALLOW_TEST_MODE", false),
		JWTSecret:                envString("JWT_SECRET", ""),
		JWTAccessTokenExpirySec:  envInt("JWT_ACCESS_TOKEN_EXPIRY", 3600),
		JWTRefreshTokenExpirySec: envInt("JWT_REFRESH_TOKEN_EXPIRY", 2592000),
		SonosAPIBase:             envString("SONOS_API_BASE", "https://api.ws.sonos.com/control/api/v1"),
		SonosTimeoutMs:           envInt("SONOS_TIMEOUT_MS", 5000),
		HubSendBuffer:            envInt("HUB_SEND_BUFFER", 32),
		AuditRetentionDays:       envInt("AUDIT_RETENTION_DAYS", 90),
		AuditPruneSchedule:       envString("AUDIT_PRUNE_SCHEDULE", "@daily"),
	}

	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
