package config

import "time"

// Config is the root configuration structure for rulebook.
type Config struct {
	// Rules contains the location of the rules documents and how they are
	// parsed and watched.
	Rules RulesConfig `yaml:"rules"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig contains configuration for loading rules documents.
type RulesConfig struct {
	// Path is a rules document or a directory of rules documents.
	// Default: ".cursorrules"
	Path string `yaml:"path"`

	// Watch enables reloading when the documents change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a change before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// MaxFileSize is the largest document accepted, in bytes.
	// Default: 1048576 (1MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// Extensions lists the file extensions picked up when Path is a directory.
	// Default: [".md", ".mdc", ".cursorrules", ".windsurfrules"]
	Extensions []string `yaml:"extensions"`

	// Strict requires every document to carry a metadata block with a
	// description.
	// Default: false
	Strict bool `yaml:"strict"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains trace export configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where the metrics endpoint is served by the watch
	// command.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "rulebook"
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name component.
	// Default: "registry"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains trace export configuration. Spans cover document
// reloads and rule lookups.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "rulebook"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
