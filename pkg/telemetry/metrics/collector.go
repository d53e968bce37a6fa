package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/rulebook/pkg/config"
)

// otherDocument is the label used once the document label limit is reached.
const otherDocument = "other"

// Collector owns the Prometheus registry and records rulebook metrics.
// A collector built from a disabled configuration records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	rulebook *RulebookMetrics

	// Limits distinct document label values
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "rulebook",
//		Subsystem: "registry",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultPrometheusNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultPrometheusSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		rulebook:           NewRulebookMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// Enabled reports whether the collector records metrics.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordLoad records a load or reload attempt.
//
// Parameters:
//   - success: whether the new catalog became active
//   - duration: time spent reading and parsing every document
func (c *Collector) RecordLoad(success bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	c.rulebook.RecordLoad(result, duration)
}

// SetCatalog records the documents of the active catalog and their rule
// counts. Documents beyond the label limit are summed under "other".
func (c *Collector) SetCatalog(rulesPerDocument map[string]int) {
	if !c.config.Enabled {
		return
	}

	limited := make(map[string]int, len(rulesPerDocument))
	for name, count := range rulesPerDocument {
		if !c.cardinalityLimiter.Allow(name) {
			name = otherDocument
		}
		limited[name] += count
	}
	c.rulebook.SetCatalog(limited)
}

// RecordLookup records a lookup of a rule by id.
func (c *Collector) RecordLookup(found bool) {
	if !c.config.Enabled {
		return
	}

	result := ResultFound
	if !found {
		result = ResultUnknown
	}
	c.rulebook.RecordLookup(result)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it was seen before, or
// the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
