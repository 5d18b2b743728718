package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any rule fails. It returns nil when the
// configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}
	if cfg.Server.DocumentRoot == "" {
		errs = append(errs, FieldError{
			Field:   "server.document_root",
			Message: "document root is required",
		})
	}

	if cfg.TLS.Enabled && cfg.TLS.CertFile == "" {
		errs = append(errs, FieldError{
			Field:   "tls.cert_file",
			Message: "certificate file is required when TLS is enabled",
		})
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level must be one of debug, info, warn, error; got %q", cfg.Telemetry.Logging.Level),
		})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format must be json or text, got %q", cfg.Telemetry.Logging.Format),
		})
	}

	if cfg.Telemetry.Metrics.ListenAddress != "" && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("path must start with /, got %q", cfg.Telemetry.Metrics.Path),
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
