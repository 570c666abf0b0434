package config

import (
	"strings"
	"time"

	"github.com/voxhall/callstream/pkg/api"
)

// ApplyDefaults fills every field the merged file and environment left at
// its zero value. Anything the operator set explicitly survives; FailureRate
// is a pointer precisely so an explicit 0.0 is distinguishable from an
// omission.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.applyDefaults()
	cfg.Telemetry.applyDefaults()
	cfg.AI.applyDefaults()
	cfg.Database.ApplyDefaults()
	cfg.Archive.ApplyDefaults()

	applyServerDefaults(&cfg.Server)

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func (c *LoggingConfig) applyDefaults() {
	if c.Level == "" {
		c.Level = "INFO"
	}
	// Accept any casing in the file; everything downstream compares uppercase.
	c.Level = strings.ToUpper(c.Level)

	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// applyDefaults leaves Enabled untouched: tracing and profiling are opt-in,
// only their targets get fallbacks.
func (c *TelemetryConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317" // OTLP over gRPC
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	c.Profiling.applyDefaults()
}

func (c *ProfilingConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:4040"
	}
	if len(c.ProfileTypes) == 0 {
		c.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func (c *AIConfig) applyDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.FailureRate == nil {
		rate := 0.25
		c.FailureRate = &rate
	}
	if c.MinLatency <= 0 {
		c.MinLatency = time.Second
	}
	if c.MaxLatency <= 0 {
		c.MaxLatency = 3 * time.Second
	}
}

// applyServerDefaults duplicates the fallbacks pkg/api applies on its own,
// so that a rendered config shows the values the server will actually use.
func applyServerDefaults(c *api.APIConfig) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = time.Minute
	}
}

// GetDefaultConfig returns the configuration a fresh install runs with:
// SQLite storage, the API on port 8080, the mock transcriber at a 25%
// failure rate, and the archive sweeper off. `config init` serializes
// exactly this into the starter file.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
