// Package logging configures structured logging for the lbbackend test
// server on top of log/slog.
//
// The server emits single-line JSON by default so that journald and the
// acceptance-test harness (which greps access logs to attribute requests
// to backends) can consume the output without a parsing step. A text
// format is available for interactive use.
package logging
