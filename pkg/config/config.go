// Package config loads, validates, and persists the CallStream service
// configuration.
package config

import (
	"time"

	"github.com/voxhall/callstream/pkg/api"
	"github.com/voxhall/callstream/pkg/archive"
	"github.com/voxhall/callstream/pkg/orchestrator"
	"github.com/voxhall/callstream/pkg/store"
	"github.com/voxhall/callstream/pkg/transcriber"
)

// Config is the full static configuration of the CallStream service,
// read once at startup.
//
// Precedence, highest first: CLI flags, CALLSTREAM_* environment variables
// (plus the bare aliases below), the configuration file, and built-in
// defaults. No file is required; every key has a default and binds to the
// environment, so a container can run on variables alone.
//
// Bare aliases kept for earlier deployments: DATABASE_URL, LOG_LEVEL,
// MAX_AI_RETRIES, AI_FAILURE_RATE.
type Config struct {
	// Logging selects level, format, and destination for the process log.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry configures OpenTelemetry tracing and Pyroscope profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds the graceful drain after SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Database selects and tunes call persistence. A postgres URL (or the
	// DATABASE_URL alias) switches the backend from SQLite to PostgreSQL.
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Server holds the HTTP listener settings shared by the REST API, the
	// dashboard WebSocket, and the metrics endpoint.
	Server api.APIConfig `mapstructure:"server" yaml:"server"`

	// AI tunes the simulated transcriber and the retry policy around it.
	AI AIConfig `mapstructure:"ai" yaml:"ai"`

	// Archive drives the retention sweeper and the optional S3 export.
	Archive archive.Config `mapstructure:"archive" yaml:"archive"`

	// Metrics toggles Prometheus collection and the /metrics route.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig selects what gets logged and where it goes.
type LoggingConfig struct {
	// Level is the minimum level that gets emitted: DEBUG, INFO, WARN or
	// ERROR, in any casing. Overridden by CALLSTREAM_LOGGING_LEVEL or
	// the bare LOG_LEVEL.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" for humans or "json" for log shippers.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig configures the OpenTelemetry trace exporter. Spans are
// shipped to an OTLP collector such as Jaeger or Tempo.
type TelemetryConfig struct {
	// Enabled turns tracing on. Off by default.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the collector's host:port; localhost:4317 by default.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure skips TLS towards the collector, which suits local
	// development. Point production at a TLS collector and set it false.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces kept, from 0.0 (drop all)
	// to 1.0 (keep all, the default).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures continuous profiling alongside tracing.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig streams pprof data to a Pyroscope server for flame-graph
// analysis.
type ProfilingConfig struct {
	// Enabled turns continuous profiling on. Off by default.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL; http://localhost:4040 by default.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect. The default set covers
	// cpu, the four allocation profiles, and goroutines; the mutex_* and
	// block_* variants can be added at the cost of runtime overhead.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig toggles Prometheus instrumentation. While disabled, no
// collectors are registered and the /metrics route is not mounted.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// AIConfig tunes the simulated transcription service and the retry loop
// around it.
type AIConfig struct {
	// MaxRetries is the number of transcription retries after the initial
	// attempt before a call is marked FAILED.
	// Override: CALLSTREAM_AI_MAX_RETRIES or MAX_AI_RETRIES
	// Default: 5
	MaxRetries int `mapstructure:"max_retries" validate:"min=0,max=100" yaml:"max_retries"`

	// FailureRate is the probability in [0, 1] that a transcription attempt
	// fails transiently and is retried. Explicit zero disables simulated
	// failures; a pointer distinguishes "not set" from "set to zero".
	// Override: CALLSTREAM_AI_FAILURE_RATE or AI_FAILURE_RATE
	// Default: 0.25
	FailureRate *float64 `mapstructure:"failure_rate" validate:"omitempty,gte=0,lte=1" yaml:"failure_rate"`

	// MinLatency and MaxLatency bound the simulated transcription latency,
	// drawn uniformly per attempt.
	// Defaults: 1s and 3s
	MinLatency time.Duration `mapstructure:"min_latency" validate:"min=0" yaml:"min_latency"`
	MaxLatency time.Duration `mapstructure:"max_latency" validate:"min=0" yaml:"max_latency"`
}

// TranscriberConfig converts the AI section into mock transcriber settings.
func (c *AIConfig) TranscriberConfig() transcriber.MockConfig {
	cfg := transcriber.MockConfig{
		MinLatency: c.MinLatency,
		MaxLatency: c.MaxLatency,
	}
	if c.FailureRate != nil {
		cfg.FailureRate = *c.FailureRate
	}
	return cfg
}

// OrchestratorConfig converts the AI section into orchestrator settings.
func (c *AIConfig) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxRetries: c.MaxRetries,
	}
}
