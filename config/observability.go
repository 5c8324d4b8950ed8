package config

import "strings"

// ObservabilityConfig controls logging and metrics exposition.
type ObservabilityConfig struct {
	// MetricsEnabled exposes Prometheus metrics at /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Sanitize normalises the log level.
func (c *ObservabilityConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
}
