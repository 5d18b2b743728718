// Package metrics provides Prometheus metrics for the lbbackend test
// server.
//
// Metrics are exposed on a dedicated listener, never on the test
// endpoints themselves: the acceptance tests assert exact routing
// behavior for the main HTTP surface, and a /metrics route there would
// shadow the static file server.
package metrics
