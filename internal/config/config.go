package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vodvault/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DBPath       string
	DownloadRoot string
	LogLevel     string
	LogFormat    string

	// StaleJobPolicy decides what happens to jobs found still "running" at
	// startup: leave, fail, or requeue. StaleJobGrace limits the policy to
	// jobs whose startedAt is older than the grace period.
	StaleJobPolicy string
	StaleJobGrace  time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(home, constants.DefaultDownloadRoot)

	return &Config{
		Port:           getEnv("PORT", constants.DefaultPort),
		DBPath:         getEnv("DB_PATH", constants.DefaultDBPath),
		DownloadRoot:   getEnv("DOWNLOAD_ROOT", defaultRoot),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		StaleJobPolicy: getEnv("STALE_JOB_POLICY", constants.StaleJobFail),
		StaleJobGrace:  getEnvDuration("STALE_JOB_GRACE", 0),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.DownloadRoot == "" {
		errors = append(errors, "DOWNLOAD_ROOT cannot be empty")
	} else if !filepath.IsAbs(c.DownloadRoot) {
		errors = append(errors, fmt.Sprintf("DOWNLOAD_ROOT must be an absolute path, got: %s", c.DownloadRoot))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of debug/info/warn/error, got: %s", c.LogLevel))
	}

	switch c.StaleJobPolicy {
	case constants.StaleJobLeave, constants.StaleJobFail, constants.StaleJobRequeue:
	default:
		errors = append(errors, fmt.Sprintf("STALE_JOB_POLICY must be one of leave/fail/requeue, got: %s", c.StaleJobPolicy))
	}

	if c.StaleJobGrace < 0 {
		errors = append(errors, "STALE_JOB_GRACE cannot be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
