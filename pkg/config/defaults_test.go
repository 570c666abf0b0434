package config

import (
	"testing"
	"time"

	"github.com/voxhall/callstream/pkg/store"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected format text, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("Expected idle timeout 60s, got %v", cfg.Server.IdleTimeout)
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		t.Errorf("Expected sqlite default, got %q", cfg.Database.Type)
	}
	if cfg.Database.SQLite.Path == "" {
		t.Error("Expected a default sqlite path")
	}
	if cfg.AI.MaxRetries != 5 {
		t.Errorf("Expected max retries 5, got %d", cfg.AI.MaxRetries)
	}
	if cfg.AI.FailureRate == nil || *cfg.AI.FailureRate != 0.25 {
		t.Errorf("Expected failure rate 0.25, got %v", cfg.AI.FailureRate)
	}
	if cfg.Archive.Enabled {
		t.Error("Expected archive sweeper disabled by default")
	}
	if cfg.Archive.Interval != time.Hour {
		t.Errorf("Expected archive interval 1h, got %v", cfg.Archive.Interval)
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected OTLP endpoint default, got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	rate := 0.0
	cfg := &Config{
		Logging:         LoggingConfig{Level: "debug", Format: "json", Output: "stderr"},
		ShutdownTimeout: 5 * time.Second,
		AI: AIConfig{
			MaxRetries:  2,
			FailureRate: &rate,
			MinLatency:  time.Millisecond,
			MaxLatency:  2 * time.Millisecond,
		},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json format preserved, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.AI.MaxRetries != 2 {
		t.Errorf("Expected max retries preserved, got %d", cfg.AI.MaxRetries)
	}
	if cfg.AI.FailureRate == nil || *cfg.AI.FailureRate != 0 {
		t.Errorf("Expected explicit zero failure rate preserved, got %v", cfg.AI.FailureRate)
	}
	if cfg.AI.MinLatency != time.Millisecond {
		t.Errorf("Expected min latency preserved, got %v", cfg.AI.MinLatency)
	}
}

func TestApplyDefaults_PostgresURLSelectsBackend(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Postgres.URL = "postgres://calls@localhost/callstream"
	ApplyDefaults(cfg)

	if cfg.Database.Type != store.DatabaseTypePostgres {
		t.Errorf("Expected postgres backend, got %q", cfg.Database.Type)
	}
	if cfg.Database.Postgres.MaxOpenConns != 30 {
		t.Errorf("Expected pool default 30, got %d", cfg.Database.Postgres.MaxOpenConns)
	}
	if cfg.Database.Postgres.MaxIdleConns != 10 {
		t.Errorf("Expected idle default 10, got %d", cfg.Database.Postgres.MaxIdleConns)
	}
}

func TestAIConfig_TranscriberConfig(t *testing.T) {
	rate := 0.75
	ai := AIConfig{
		FailureRate: &rate,
		MinLatency:  time.Millisecond,
		MaxLatency:  5 * time.Millisecond,
	}

	mc := ai.TranscriberConfig()
	if mc.FailureRate != 0.75 {
		t.Errorf("Expected failure rate 0.75, got %v", mc.FailureRate)
	}
	if mc.MinLatency != time.Millisecond || mc.MaxLatency != 5*time.Millisecond {
		t.Errorf("Unexpected latency bounds: %v..%v", mc.MinLatency, mc.MaxLatency)
	}
}

func TestAIConfig_OrchestratorConfig(t *testing.T) {
	ai := AIConfig{MaxRetries: 3}

	oc := ai.OrchestratorConfig()
	if oc.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", oc.MaxRetries)
	}
}
