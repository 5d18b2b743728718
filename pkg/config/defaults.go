package config

// Default values for configuration fields.
const (
	DefaultPort         = 8000
	DefaultDocumentRoot = "."

	DefaultTLSCertFile = "server.pem"

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	DefaultMetricsPath = "/metrics"

	DefaultStatsSchedule = "@every 5m"
)

// Default returns a configuration populated with default values, suitable
// for running without a configuration file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields of cfg with default values. Explicitly
// configured values are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.DocumentRoot == "" {
		cfg.Server.DocumentRoot = DefaultDocumentRoot
	}
	if cfg.TLS.CertFile == "" {
		cfg.TLS.CertFile = DefaultTLSCertFile
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Stats.Schedule == "" {
		cfg.Telemetry.Stats.Schedule = DefaultStatsSchedule
	}
}
