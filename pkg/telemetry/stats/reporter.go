package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"cloudscale-ch/lbbackend/pkg/telemetry/metrics"
)

// Reporter periodically logs a snapshot of the listener counters. The
// acceptance harness keeps connections open for minutes at a time; the
// periodic line makes it possible to see from the journal alone whether a
// backend is still holding streams.
type Reporter struct {
	collector *metrics.Collector
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReporter creates a reporter logging snapshots of collector on the
// given cron schedule. An empty schedule disables the reporter.
func NewReporter(schedule string, collector *metrics.Collector, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		collector: collector,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger.With("component", "stats"),
	}
}

// Start begins scheduled reporting and returns immediately. The reporter
// stops when ctx is cancelled or Stop is called.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.schedule == "" {
		r.logger.Debug("stats schedule not configured, reporter disabled")
		return nil
	}

	if _, err := cron.ParseStandard(r.schedule); err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", r.schedule, err)
	}
	if _, err := r.cron.AddFunc(r.schedule, r.report); err != nil {
		return fmt.Errorf("failed to schedule stats report: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("stats reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

func (r *Reporter) report() {
	snap := r.collector.Stats()
	r.logger.Info("listener stats",
		"accepted_connections", snap.AcceptedConnections,
		"active_connections", snap.ActiveConnections,
		"endless_bytes", snap.EndlessBytes,
	)
}

// Stop stops the reporter and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		<-r.cron.Stop().Done()
		r.running = false
		r.logger.Info("stats reporter stopped")
	}
}
