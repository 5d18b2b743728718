package config

// Config is the root configuration for the lbbackend test server. It is
// constructed once at startup and treated as immutable afterwards: the
// server and every connection handler receive it by explicit reference,
// never through mutable globals.
type Config struct {
	// Server contains the HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// TLS contains the TLS listener configuration.
	TLS TLSConfig `yaml:"tls"`

	// Telemetry contains logging, metrics, and stats reporting settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	// Port is the TCP port the server binds on all interfaces.
	// Default: 8000
	Port int `yaml:"port"`

	// DocumentRoot is the directory served for paths not handled by the
	// synthetic endpoints.
	// Default: "." (the working directory)
	DocumentRoot string `yaml:"document_root"`
}

// TLSConfig contains the TLS listener configuration.
type TLSConfig struct {
	// Enabled wraps the listening socket in TLS so every accepted
	// connection completes a server-side handshake before any
	// application data is read.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is a combined PEM file holding both the certificate and
	// the private key, as produced by a single openssl invocation or by
	// `lbbackend certs generate`. Loaded at startup; a missing or
	// malformed file is fatal before the server accepts any connection.
	// Default: "server.pem"
	CertFile string `yaml:"cert_file"`

	// DisableReload turns off the watcher that swaps the served
	// certificate when CertFile changes on disk.
	// Default: false (hot reload enabled)
	DisableReload bool `yaml:"disable_reload"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Stats   StatsConfig   `yaml:"stats"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format: json or text.
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings. Metrics are served
// on their own listener so the test endpoints' HTTP surface stays exactly
// as the acceptance tests expect.
type MetricsConfig struct {
	// ListenAddress is the address of the metrics listener, for example
	// "127.0.0.1:9100". Empty disables the metrics listener.
	// Default: "" (disabled)
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path metrics are exposed on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// StatsConfig contains the periodic listener stats report settings.
type StatsConfig struct {
	// Schedule is a cron expression or descriptor (for example
	// "@every 5m") controlling how often a stats snapshot is logged.
	// Empty disables the reporter.
	// Default: "@every 5m"
	Schedule string `yaml:"schedule"`
}
