package config

import (
	"log/slog"
	"strings"
)

// ObservabilityConfig groups configuration that controls logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Logging.Sanitize()
	c.Metrics.Sanitize()
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Sanitize lowercases the level and falls back to info for unknown values.
func (c *LoggingConfig) Sanitize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		c.Level = "info"
	}
}

// SlogLevel returns the configured level for slog handlers.
func (c LoggingConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ObservabilityMetricsConfig controls the Prometheus endpoint.
type ObservabilityMetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	// Addr serves /metrics on a separate listener. Empty mounts it on the main router.
	Addr string `env:"METRICS_ADDR" envDefault:""`
	// RuntimeCollectors adds Go runtime and process metrics.
	RuntimeCollectors bool `env:"METRICS_RUNTIME_COLLECTORS" envDefault:"true"`

	// StatsdAddress mirrors the same observations to a StatsD agent (host:port).
	StatsdAddress string `env:"METRICS_STATSD_ADDR"`
	StatsdPrefix  string `env:"METRICS_STATSD_PREFIX" envDefault:"viveconecta"`
}

// Sanitize normalises derived fields.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
}

// SeparateListener reports whether metrics get their own server.
func (c *ObservabilityMetricsConfig) SeparateListener() bool {
	return c.Enabled && c.Addr != ""
}

// StatsdEnabled reports whether observations are mirrored to StatsD.
func (c *ObservabilityMetricsConfig) StatsdEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
