// Package config provides configuration management for rulebook.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("rulebook.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("rulebook.yaml")
//
// Passing an empty path to LoadConfigWithEnvOverrides reads rulebook.yaml from
// the working directory if it exists and falls back to defaults otherwise.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RULEBOOK_SECTION_FIELD:
//
//   - RULEBOOK_RULES_PATH overrides rules.path
//   - RULEBOOK_RULES_WATCH overrides rules.watch
//   - RULEBOOK_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// Malformed values (a non-boolean RULEBOOK_RULES_WATCH, for example) are
// reported as errors.
//
// # Example Configuration
//
//	rules:
//	  path: ".cursor/rules"
//	  watch: true
//	  debounce: 250ms
//	  strict: true
//
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "json"
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9464"
package config
