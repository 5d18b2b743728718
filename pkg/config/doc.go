// Package config provides configuration management for the lbbackend
// test server.
//
// Configuration is loaded from an optional YAML file with environment
// variable overrides and sensible defaults, so the common case of
// running the binary with no arguments on port 8000 needs no file at all.
//
// # Loading
//
//	cfg, err := config.Load("")            // defaults + env only
//	cfg, err := config.Load("config.yaml") // file + env overrides
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// LBBACKEND_SECTION_FIELD and always take precedence over file values:
//
//   - LBBACKEND_SERVER_PORT overrides server.port
//   - LBBACKEND_TLS_ENABLED overrides tls.enabled
//   - LBBACKEND_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Example Configuration
//
//	server:
//	  port: 8000
//	  document_root: "."
//
//	tls:
//	  enabled: true
//	  cert_file: "server.pem"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    listen_address: "127.0.0.1:9100"
//
// All configuration is validated during loading; validation errors carry
// field paths and are aggregated so a broken file reports every problem
// at once. The resulting Config value is immutable after startup.
package config
