package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ADMIN_BIND", "LOG_LEVEL", "RELAY_CONFIG", "ADMIN_USERNAME", "ADMIN_PASSWORD", "JWT_SECRET", "METRICS_BIND"} {
		prev, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			}
		})
	}

	cfg := Load()
	if cfg.AdminBind != ":8010" {
		t.Fatalf("AdminBind = %q, want :8010", cfg.AdminBind)
	}
	if cfg.MetricsBind != ":9110" {
		t.Fatalf("MetricsBind = %q, want :9110", cfg.MetricsBind)
	}
	if cfg.RelayConfig != "./relay.yaml" {
		t.Fatalf("RelayConfig = %q, want ./relay.yaml", cfg.RelayConfig)
	}
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("ADMIN_BIND", ":9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.AdminBind != ":9999" {
		t.Fatalf("AdminBind = %q, want :9999", cfg.AdminBind)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}
