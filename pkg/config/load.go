package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from an optional YAML file, environment
// variable overrides, and defaults, then validates the result.
//
// The loading sequence is:
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file, when path is non-empty
//  3. LBBACKEND_* environment variable overrides
//  4. Validation (fails fast if invalid)
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// LBBACKEND_SECTION_FIELD and always take precedence over file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("LBBACKEND_SERVER_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = i
		}
	}
	if val := os.Getenv("LBBACKEND_SERVER_DOCUMENT_ROOT"); val != "" {
		cfg.Server.DocumentRoot = val
	}

	if val := os.Getenv("LBBACKEND_TLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.TLS.Enabled = b
		}
	}
	if val := os.Getenv("LBBACKEND_TLS_CERT_FILE"); val != "" {
		cfg.TLS.CertFile = val
	}
	if val := os.Getenv("LBBACKEND_TLS_DISABLE_RELOAD"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.TLS.DisableReload = b
		}
	}

	if val := os.Getenv("LBBACKEND_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("LBBACKEND_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("LBBACKEND_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("LBBACKEND_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("LBBACKEND_TELEMETRY_STATS_SCHEDULE"); val != "" {
		cfg.Telemetry.Stats.Schedule = val
	}
}
