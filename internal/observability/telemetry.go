// Package observability starts and stops the process-wide tracing, profiling
// and pprof endpoints.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/smartping-sync/internal/config"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

type Telemetry struct {
	shutdownTracing func(context.Context) error
	stopProfiler    func() error
	pprof           *http.Server
	logger          *logging.Logger
}

// Start brings up every enabled backend. On failure the ones already running
// are stopped before returning.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "observability")

	shutdownTracing, err := initUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	stopProfiler, err := initPyroscope(cfg, logger)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}

	return &Telemetry{
		shutdownTracing: shutdownTracing,
		stopProfiler:    stopProfiler,
		pprof:           startPprof(cfg, logger),
		logger:          logger,
	}, nil
}

// Shutdown stops pprof and the profiler, then flushes traces last so spans
// emitted while draining are still exported.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if err := stopPprof(ctx, t.pprof); err != nil {
		errs = append(errs, fmt.Errorf("stop pprof: %w", err))
	}
	if err := t.stopProfiler(); err != nil {
		errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
	}
	if err := t.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
	}
	t.logger.Info("telemetry stopped", "errors", len(errs))
	return errors.Join(errs...)
}
