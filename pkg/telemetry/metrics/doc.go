// Package metrics provides Prometheus metrics for rulebook.
//
// # Metrics
//
//   - loads_total{result}: load and reload attempts ("success", "failure")
//   - load_duration_seconds: time to read and parse every document
//   - documents_loaded: documents in the active catalog
//   - rules_loaded{document}: rules per active document
//   - rule_lookups_total{result}: lookups by id ("found", "unknown")
//
// Names are prefixed with the configured namespace and subsystem
// (rulebook_registry_ by default).
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mgr, err := manager.NewManager(&cfg.Rules, logger, manager.WithMetrics(collector))
//
//	mux := http.NewServeMux()
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// A collector created with Enabled false accepts every call and records
// nothing, so callers need not check the configuration.
package metrics
