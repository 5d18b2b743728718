package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		if err := Validate(Default()); err != nil {
			t.Errorf("Validate(Default()) = %v, want nil", err)
		}
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = 70000
		err := Validate(cfg)
		if err == nil {
			t.Fatal("expected a validation error")
		}
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("err = %T, want ValidationError", err)
		}
		if verr.Errors[0].Field != "server.port" {
			t.Errorf("Field = %q, want server.port", verr.Errors[0].Field)
		}
	})

	t.Run("tls without cert file", func(t *testing.T) {
		cfg := Default()
		cfg.TLS.Enabled = true
		cfg.TLS.CertFile = ""
		if err := Validate(cfg); err == nil {
			t.Fatal("expected a validation error")
		}
	})

	t.Run("unknown log level", func(t *testing.T) {
		cfg := Default()
		cfg.Telemetry.Logging.Level = "loud"
		if err := Validate(cfg); err == nil {
			t.Fatal("expected a validation error")
		}
	})

	t.Run("multiple errors are aggregated", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = 0
		cfg.Telemetry.Logging.Level = "loud"
		cfg.Telemetry.Logging.Format = "xml"
		err := Validate(cfg)
		if err == nil {
			t.Fatal("expected validation errors")
		}
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("err = %T, want ValidationError", err)
		}
		if len(verr.Errors) != 3 {
			t.Errorf("got %d errors, want 3: %v", len(verr.Errors), err)
		}
		if !strings.Contains(err.Error(), "3 errors") {
			t.Errorf("message %q should mention the error count", err.Error())
		}
	})

	t.Run("metrics path must be rooted when listener enabled", func(t *testing.T) {
		cfg := Default()
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9100"
		cfg.Telemetry.Metrics.Path = "metrics"
		if err := Validate(cfg); err == nil {
			t.Fatal("expected a validation error")
		}
	})
}
