package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus metrics for the test server: connection
// counts by PROXY protocol version, header parse failures by reason,
// requests by route, and bytes pushed through endless streams.
//
// It additionally keeps a few counters as plain atomics so the periodic
// stats reporter can log a snapshot without scraping the registry.
type Collector struct {
	registry *prometheus.Registry

	connectionsTotal  *prometheus.CounterVec
	headerErrorsTotal *prometheus.CounterVec
	activeConnections prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	endlessBytesTotal prometheus.Counter

	accepted     atomic.Int64
	active       atomic.Int64
	endlessBytes atomic.Int64
}

// Snapshot is a point-in-time view of the listener counters, logged by
// the periodic stats reporter.
type Snapshot struct {
	AcceptedConnections int64
	ActiveConnections   int64
	EndlessBytes        int64
}

// NewCollector creates a collector registered against its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted connections by PROXY protocol version (none, 1, 2).",
		}, []string{"proxy_version"}),
		headerErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_header_errors_total",
			Help:      "Connections rejected due to PROXY header parse failures, by reason.",
		}, []string{"reason"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Connections currently open.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		endlessBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endless_bytes_total",
			Help:      "Bytes written to endless-stream responses.",
		}),
	}

	registry.MustRegister(
		c.connectionsTotal,
		c.headerErrorsTotal,
		c.activeConnections,
		c.requestsTotal,
		c.endlessBytesTotal,
	)
	return c
}

// ConnOpened records an accepted connection.
func (c *Collector) ConnOpened() {
	c.accepted.Add(1)
	c.active.Add(1)
	c.activeConnections.Inc()
}

// ConnClosed records a closed connection.
func (c *Collector) ConnClosed() {
	c.active.Add(-1)
	c.activeConnections.Dec()
}

// ConnHeader records the outcome of PROXY header detection on a
// connection. proxyVersion is "none", "1", or "2"; reason is empty on
// success.
func (c *Collector) ConnHeader(proxyVersion, reason string) {
	if reason != "" {
		c.headerErrorsTotal.WithLabelValues(reason).Inc()
		return
	}
	c.connectionsTotal.WithLabelValues(proxyVersion).Inc()
}

// Request records a completed HTTP request.
func (c *Collector) Request(route, status string) {
	c.requestsTotal.WithLabelValues(route, status).Inc()
}

// EndlessBytes records n bytes written to an endless-stream response.
func (c *Collector) EndlessBytes(n int) {
	c.endlessBytes.Add(int64(n))
	c.endlessBytesTotal.Add(float64(n))
}

// Stats returns a snapshot of the listener counters.
func (c *Collector) Stats() Snapshot {
	return Snapshot{
		AcceptedConnections: c.accepted.Load(),
		ActiveConnections:   c.active.Load(),
		EndlessBytes:        c.endlessBytes.Load(),
	}
}

// Handler returns an http.Handler exposing the collector's registry in
// Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
