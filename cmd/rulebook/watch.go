package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/cli"
	"mercator-hq/rulebook/pkg/config"
	"mercator-hq/rulebook/pkg/policy/manager"
	"mercator-hq/rulebook/pkg/telemetry/health"
	"mercator-hq/rulebook/pkg/telemetry/metrics"
	"mercator-hq/rulebook/pkg/telemetry/tracing"
)

var watchFlags struct {
	path    string
	metrics bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload rules documents as they change",
	Long: `Load the configured rules and reload them whenever a document changes.

A reload that fails keeps the previous rules active. One line is printed per
reload. With telemetry.metrics.enabled (or --metrics) a Prometheus endpoint and
the /healthz, /readyz and /version probes are served on
telemetry.metrics.listen_address. With telemetry.tracing.enabled every reload
is exported as an OTLP span. Stops on SIGINT or SIGTERM.

Examples:
  rulebook watch
  rulebook watch --path .cursor/rules --metrics`,
	Args: cobra.NoArgs,
	RunE: watchRules,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.path, "path", "p", "", "rules document or directory (default rules.path)")
	watchCmd.Flags().BoolVar(&watchFlags.metrics, "metrics", false, "serve Prometheus metrics")
}

func watchRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if watchFlags.path != "" {
		cfg.Rules.Path = watchFlags.path
	}
	cfg.Rules.Watch = true
	if watchFlags.metrics {
		cfg.Telemetry.Metrics.Enabled = true
	}

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Tracer shutdown failed", "error", err)
		}
	}()

	mgr, err := manager.NewManager(&cfg.Rules, logger,
		manager.WithMetrics(collector),
		manager.WithTracer(tracer.Tracer()),
	)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer mgr.Close()

	events, unsubscribe := mgr.Subscribe()
	defer unsubscribe()

	out := output(cmd)
	go func() {
		for ev := range events {
			if ev.Err != nil {
				fmt.Fprintf(out, "%s reload %s failed, keeping version %s\n",
					ev.Timestamp.Format(time.RFC3339), ev.ID, ev.Version)
				continue
			}
			fmt.Fprintf(out, "%s reload %s version=%s documents=%d\n",
				ev.Timestamp.Format(time.RFC3339), ev.ID, ev.Version, ev.Documents)
		}
	}()

	if err := mgr.Load(); err != nil {
		return cli.NewCommandError("watch", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := cli.SetupSignalHandler(parent)
	defer stop()

	if collector.Enabled() {
		checker := health.New(time.Second)
		checker.RegisterCheck("rules", mgr.Check)
		srv := startMetricsServer(cfg.Telemetry.Metrics, collector, checker, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	if err := mgr.Watch(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}

	logger.Info("Watch stopped")
	return nil
}

// startMetricsServer serves the metrics endpoint and the health probes on
// the metrics listen address.
func startMetricsServer(cfg config.MetricsConfig, collector *metrics.Collector, checker *health.Checker, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           newTelemetryMux(cfg, collector, checker),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", "address", cfg.ListenAddress, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	return srv
}

func newTelemetryMux(cfg config.MetricsConfig, collector *metrics.Collector, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())
	health.Register(mux, checker, Version, GitCommit, BuildDate)
	return mux
}
