package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rulebook/pkg/config"
)

// Label values for the result label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultFound   = "found"
	ResultUnknown = "unknown"
)

// RulebookMetrics tracks loading of rules documents and rule lookups.
//
// Metrics:
//   - rulebook_registry_loads_total: Load and reload attempts by result
//   - rulebook_registry_load_duration_seconds: Time to load every document
//   - rulebook_registry_documents_loaded: Documents in the active catalog
//   - rulebook_registry_rules_loaded: Rules per active document
//   - rulebook_registry_rule_lookups_total: Rule lookups by result
type RulebookMetrics struct {
	loadsTotal      *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	documentsLoaded prometheus.Gauge
	rulesLoaded     *prometheus.GaugeVec
	lookupsTotal    *prometheus.CounterVec
}

// NewRulebookMetrics creates and registers rulebook metrics with the provided registry.
func NewRulebookMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RulebookMetrics {
	rm := &RulebookMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "loads_total",
				Help:      "Total number of rules document loads",
			},
			[]string{"result"},
		),

		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "load_duration_seconds",
				Help:      "Duration of loading all rules documents in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~0.8s
			},
		),

		documentsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "documents_loaded",
				Help:      "Number of rules documents in the active catalog",
			},
		),

		rulesLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_loaded",
				Help:      "Number of rules in each active document",
			},
			[]string{"document"},
		),

		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_lookups_total",
				Help:      "Total number of rule lookups by id",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		rm.loadsTotal,
		rm.loadDuration,
		rm.documentsLoaded,
		rm.rulesLoaded,
		rm.lookupsTotal,
	)

	return rm
}

// RecordLoad records one load attempt and its duration.
func (rm *RulebookMetrics) RecordLoad(result string, duration time.Duration) {
	rm.loadsTotal.WithLabelValues(result).Inc()
	rm.loadDuration.Observe(duration.Seconds())
}

// SetCatalog replaces the document gauges with the given rule counts.
func (rm *RulebookMetrics) SetCatalog(rulesPerDocument map[string]int) {
	rm.rulesLoaded.Reset()
	for name, count := range rulesPerDocument {
		rm.rulesLoaded.WithLabelValues(name).Set(float64(count))
	}
	rm.documentsLoaded.Set(float64(len(rulesPerDocument)))
}

// RecordLookup records a rule lookup.
func (rm *RulebookMetrics) RecordLookup(result string) {
	rm.lookupsTotal.WithLabelValues(result).Inc()
}
