package server

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"

	"cloudscale-ch/lbbackend/pkg/telemetry/metrics"
)

// Route labels used for the per-route request metrics.
const (
	routeEndless  = "endless"
	routeHostname = "hostname"
	routeStatic   = "static"
)

// Router dispatches requests to the synthetic test endpoints, falling
// back to a static file server for everything else.
//
// Dispatch is by path prefix, checked in order:
//
//	/endless/  endless random byte stream, any suffix
//	/hostname  the server's hostname, exact Content-Length
//	anything else is served from the document root
type Router struct {
	files     http.Handler
	logger    *slog.Logger
	collector *metrics.Collector

	// hostname is swappable for tests. Defaults to os.Hostname.
	hostname func() (string, error)
}

// NewRouter creates a router serving static files from documentRoot.
func NewRouter(documentRoot string, logger *slog.Logger, collector *metrics.Collector) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		files:     http.FileServer(http.Dir(documentRoot)),
		logger:    logger,
		collector: collector,
		hostname:  os.Hostname,
	}
}

// ServeHTTP dispatches the request and records the per-route metric.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, handler := rt.route(r)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	handler(sw, r)

	if rt.collector != nil {
		rt.collector.Request(route, strconv.Itoa(sw.status))
	}
}

func (rt *Router) route(r *http.Request) (string, http.HandlerFunc) {
	if r.Method == http.MethodGet {
		switch {
		case strings.HasPrefix(r.URL.Path, "/endless/"):
			return routeEndless, rt.serveEndless
		case r.URL.Path == "/hostname":
			return routeHostname, rt.serveHostname
		}
	}
	return routeStatic, rt.files.ServeHTTP
}

// serveEndless streams random bytes until the client goes away. The
// response deliberately has no Content-Length and never finishes on its
// own: load balancer acceptance tests hold these streams open across
// failovers and assert the bytes keep flowing.
//
// Bytes are written one at a time and flushed immediately so buffering
// never delays the stream past an idle-timeout threshold under test.
func (rt *Router) serveEndless(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	rt.logger.Debug("endless stream started",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	buf := []byte{0}
	written := 0
	for {
		buf[0] = byte(rand.Uint32())
		n, err := w.Write(buf)
		written += n
		if rt.collector != nil {
			rt.collector.EndlessBytes(n)
		}
		if err != nil {
			rt.logger.Debug("endless stream ended",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"bytes_written", written,
			)
			return
		}
		flusher.Flush()
	}
}

// serveHostname responds with the server's hostname and an exact
// Content-Length, so a load balancer health check or round-robin test
// can read the full body without relying on connection close.
func (rt *Router) serveHostname(w http.ResponseWriter, r *http.Request) {
	name, err := rt.hostname()
	if err != nil {
		rt.logger.Error("failed to resolve hostname", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(name)))
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, name)
}

// statusWriter records the status code for the per-route metrics. The
// access log middleware keeps its own capture; this one exists so the
// router can label metrics without depending on middleware internals.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.written {
		return
	}
	sw.status = code
	sw.written = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.written = true
	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
