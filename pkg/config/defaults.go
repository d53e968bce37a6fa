package config

import "time"

// DefaultConfigPath is the configuration file read when none is named.
// Unlike an explicit path, it may be absent.
const DefaultConfigPath = "rulebook.yaml"

// Default values for configuration fields.
const (
	// Rules defaults
	DefaultRulesPath        = ".cursorrules"
	DefaultRulesWatch       = false
	DefaultRulesDebounce    = 100 * time.Millisecond
	DefaultRulesMaxFileSize = int64(1 << 20) // 1MB
	DefaultRulesStrict      = false

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultMetricsEnabled       = false
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultPrometheusPath       = "/metrics"
	DefaultPrometheusNamespace  = "rulebook"
	DefaultPrometheusSubsystem  = "registry"
	DefaultTracingSampler       = "always"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingServiceName   = "rulebook"
	DefaultTracingTimeout       = 10 * time.Second
)

// Upper bounds accepted by Validate.
const (
	maxRulesFileSize = int64(64 << 20)
	maxRulesDebounce = time.Minute
)

// DefaultRulesExtensions returns the extensions recognised in a rules
// directory.
func DefaultRulesExtensions() []string {
	return []string{".md", ".mdc", ".cursorrules", ".windsurfrules"}
}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Rules defaults
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = DefaultRulesPath
	}
	if cfg.Rules.Debounce == 0 {
		cfg.Rules.Debounce = DefaultRulesDebounce
	}
	if cfg.Rules.MaxFileSize == 0 {
		cfg.Rules.MaxFileSize = DefaultRulesMaxFileSize
	}
	if len(cfg.Rules.Extensions) == 0 {
		cfg.Rules.Extensions = DefaultRulesExtensions()
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultPrometheusNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultPrometheusSubsystem
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
