package config

import (
	"strings"
	"testing"
	"time"

	"vodvault/internal/constants"
)

func validConfig() *Config {
	return &Config{
		Port:           "8090",
		DBPath:         "test.db",
		DownloadRoot:   "/data/downloads",
		LogLevel:       "info",
		LogFormat:      "text",
		StaleJobPolicy: constants.StaleJobFail,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected default port %s, got %s", constants.DefaultPort, cfg.Port)
	}
	if cfg.StaleJobPolicy != constants.StaleJobFail {
		t.Errorf("Expected default stale policy %s, got %s", constants.StaleJobFail, cfg.StaleJobPolicy)
	}
	if cfg.StaleJobGrace != 0 {
		t.Errorf("Expected zero stale grace, got %v", cfg.StaleJobGrace)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("STALE_JOB_POLICY", "requeue")
	t.Setenv("STALE_JOB_GRACE", "5m")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Port)
	}
	if cfg.StaleJobPolicy != constants.StaleJobRequeue {
		t.Errorf("Expected requeue policy, got %s", cfg.StaleJobPolicy)
	}
	if cfg.StaleJobGrace != 5*time.Minute {
		t.Errorf("Expected 5m grace, got %v", cfg.StaleJobGrace)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"bad port", func(c *Config) { c.Port = "abc" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "DB_PATH"},
		{"relative download root", func(c *Config) { c.DownloadRoot = "downloads" }, "DOWNLOAD_ROOT"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"bad stale policy", func(c *Config) { c.StaleJobPolicy = "retry" }, "STALE_JOB_POLICY"},
		{"negative grace", func(c *Config) { c.StaleJobGrace = -time.Second }, "STALE_JOB_GRACE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err, tt.wantMsg)
			}
		})
	}
}
