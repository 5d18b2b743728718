package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"cloudscale-ch/lbbackend/pkg/config"
	"cloudscale-ch/lbbackend/pkg/proxyproto"
	"cloudscale-ch/lbbackend/pkg/server/middleware"
	"cloudscale-ch/lbbackend/pkg/telemetry/metrics"
)

// Server is the PROXY protocol aware HTTP test backend. It owns the main
// listener, the optional metrics listener, and the TLS certificate store.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector

	httpServer    *http.Server
	metricsServer *http.Server
	listener      net.Listener
	certs         *certStore

	errCh chan error
}

// New creates a server from cfg. The configuration must already be
// validated.
func New(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector("lbbackend")
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		errCh:     make(chan error, 2),
	}
}

// Start binds the listeners and begins serving. It returns once the
// server is accepting connections; use Wait to block until it exits.
//
// Shutdown on context cancellation is deliberately abrupt: the endless
// stream endpoint means connections never drain on their own, so a
// graceful shutdown would hang forever.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	scheme := "http"
	if s.cfg.TLS.Enabled {
		scheme = "https"
		certs, err := newCertStore(s.cfg.TLS.CertFile, s.logger)
		if err != nil {
			ln.Close()
			return err
		}
		s.certs = certs

		if !s.cfg.TLS.DisableReload {
			if err := certs.watch(ctx); err != nil {
				ln.Close()
				return err
			}
		}

		// TLS sits below the PROXY layer here: the header travels inside
		// the encrypted stream, so decrypt first, then unwrap.
		ln = tls.NewListener(ln, &tls.Config{
			GetCertificate: certs.getCertificate,
		})
	}

	proxyLn := proxyproto.NewListener(ln, s.logger)
	proxyLn.OnConnOpen = s.collector.ConnOpened
	proxyLn.OnConnClose = s.collector.ConnClosed
	proxyLn.OnHeader = s.recordHeader
	s.listener = proxyLn

	router := NewRouter(s.cfg.Server.DocumentRoot, s.logger, s.collector)
	handler := middleware.Chain(router,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
	)

	s.httpServer = &http.Server{
		Handler: handler,
		ConnContext: func(ctx context.Context, c net.Conn) context.Context {
			if pc, ok := c.(*proxyproto.Conn); ok {
				return middleware.WithConn(ctx, pc)
			}
			return ctx
		},
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
	}

	s.logger.Info("server listening",
		"addr", proxyLn.Addr().String(),
		"scheme", scheme,
		"document_root", s.cfg.Server.DocumentRoot,
	)

	go func() {
		err := s.httpServer.Serve(proxyLn)
		if !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
			return
		}
		s.errCh <- nil
	}()

	if err := s.startMetrics(); err != nil {
		s.httpServer.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down")
		s.httpServer.Close()
		if s.metricsServer != nil {
			s.metricsServer.Close()
		}
	}()
	return nil
}

// startMetrics binds the metrics listener when one is configured.
func (s *Server) startMetrics() error {
	addr := s.cfg.Telemetry.Metrics.ListenAddress
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	s.metricsServer = &http.Server{Handler: mux}

	s.logger.Info("metrics listening",
		"addr", ln.Addr().String(),
		"path", s.cfg.Telemetry.Metrics.Path,
	)

	go func() {
		err := s.metricsServer.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
			return
		}
		s.errCh <- nil
	}()
	return nil
}

// Wait blocks until a serve loop exits and returns its error, if any.
func (s *Server) Wait() error {
	return <-s.errCh
}

// Addr returns the address the main listener is bound to. Useful when
// the configured port is 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// recordHeader maps a detection outcome onto the connection metrics.
func (s *Server) recordHeader(hdr *proxyproto.Header, err error) {
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, proxyproto.ErrUnsupportedVersion):
			reason = "unsupported_version"
		case errors.Is(err, proxyproto.ErrTruncatedHeader):
			reason = "truncated"
		}
		s.collector.ConnHeader("", reason)
		return
	}

	version := "none"
	if hdr != nil {
		version = strconv.Itoa(int(hdr.Version))
	}
	s.collector.ConnHeader(version, "")
}
