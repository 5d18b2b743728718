package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cloudscale-ch/lbbackend/pkg/config"
	"cloudscale-ch/lbbackend/pkg/server"
	"cloudscale-ch/lbbackend/pkg/telemetry/logging"
	"cloudscale-ch/lbbackend/pkg/telemetry/metrics"
	"cloudscale-ch/lbbackend/pkg/telemetry/stats"
)

var runFlags struct {
	port          int
	ssl           bool
	cert          string
	documentRoot  string
	logLevel      string
	metricsListen string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the test backend server",
	Long: `Start the test backend server on all interfaces.

The server accepts plain connections, connections with a leading PROXY
protocol header (version 1 or 2), or both mixed on the same port. With
--ssl the socket speaks TLS and the PROXY header is expected inside the
encrypted stream, matching how a TLS-passthrough load balancer prepends
it before the ciphertext reaches the backend.

Examples:
  # Start on the default port 8000
  lbbackend run

  # Serve a directory of test fixtures
  lbbackend run --port 9000 --document-root ./fixtures

  # TLS with a combined cert+key PEM
  lbbackend run --ssl --cert server.pem

  # Expose Prometheus metrics on a separate listener
  lbbackend run --metrics-listen 127.0.0.1:9100`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0, "listen port (default 8000)")
	runCmd.Flags().BoolVar(&runFlags.ssl, "ssl", false, "serve TLS")
	runCmd.Flags().StringVar(&runFlags.cert, "cert", "", "combined cert+key PEM file (default server.pem)")
	runCmd.Flags().StringVar(&runFlags.documentRoot, "document-root", "", "directory served for static paths (default .)")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.metricsListen, "metrics-listen", "", "address for the Prometheus metrics listener")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = runFlags.port
	}
	if cmd.Flags().Changed("ssl") {
		cfg.TLS.Enabled = runFlags.ssl
	}
	if runFlags.cert != "" {
		cfg.TLS.CertFile = runFlags.cert
	}
	if runFlags.documentRoot != "" {
		cfg.Server.DocumentRoot = runFlags.documentRoot
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.metricsListen != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.metricsListen
	}

	// Flag overrides bypass Load's validation, so validate again.
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := logging.Setup(&cfg.Telemetry.Logging)
	if err != nil {
		return err
	}
	logger.Info("starting lbbackend",
		"version", Version,
		"port", cfg.Server.Port,
		"tls", cfg.TLS.Enabled,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("lbbackend")

	reporter := stats.NewReporter(cfg.Telemetry.Stats.Schedule, collector, logger)
	if err := reporter.Start(ctx); err != nil {
		return err
	}
	defer reporter.Stop()

	srv := server.New(cfg, logger, collector)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if err := srv.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return err
	}
	return nil
}
