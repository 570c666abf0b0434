package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for correctness.
//
// Struct-tag rules (required, oneof, ranges) are enforced with validator/v10;
// rules a tag cannot express are checked explicitly afterwards:
//   - the database section must name a usable backend
//   - an enabled telemetry exporter needs an endpoint
//   - ai.min_latency must not exceed ai.max_latency
//   - an enabled archive sweeper needs a positive max_age and interval
//
// Validation never mutates the configuration; normalization (e.g. log level
// casing) happens in ApplyDefaults.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	if cfg.AI.MinLatency > cfg.AI.MaxLatency {
		return fmt.Errorf("ai.min_latency (%s) exceeds ai.max_latency (%s)",
			cfg.AI.MinLatency, cfg.AI.MaxLatency)
	}

	if err := cfg.Archive.Validate(); err != nil {
		return fmt.Errorf("invalid archive configuration: %w", err)
	}

	return nil
}
