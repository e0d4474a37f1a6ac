package config

import (
	"os"
)

// Config holds the daemon's scalar settings, sourced from environment
// variables with defaults. The structured relay tree lives in
// RelayConfig (relayconfig.go) and is loaded separately from a YAML file.
type Config struct {
	AdminBind     string
	LogLevel      string
	RelayConfig   string
	AdminUsername string
	AdminPassword string
	JWTSecret     string
	MetricsBind   string
}

func Load() *Config {
	return &Config{
		AdminBind:     getEnv("ADMIN_BIND", ":8010"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RelayConfig:   getEnv("RELAY_CONFIG", "./relay.yaml"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "change-me"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production-please"),
		MetricsBind:   getEnv("METRICS_BIND", ":9110"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
