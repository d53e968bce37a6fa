// Package telemetry groups the observability packages used by rulebook.
//
// # Components
//
//   - logging: slog loggers configured from telemetry.logging, with reload
//     and document context
//   - metrics: Prometheus metrics for loads, catalog size and rule lookups
//   - tracing: OpenTelemetry spans for reloads and rule lookups
//   - health: liveness and readiness endpoints served next to the metrics
//
// # Configuration
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: text
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9464"
//	    path: /metrics
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    insecure: true
//
// Metrics, probes and tracing are only started by the watch command. The
// one-shot commands log at warn level unless --log-level is given.
package telemetry
