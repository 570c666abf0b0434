package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from the file at configPath (or the default
// location when the path is empty), the environment, and built-in defaults.
// A missing file is not an error; the environment and defaults are enough
// to run on.
func Load(configPath string) (*Config, error) {
	// A .env file fills in variables the real environment leaves unset.
	_ = godotenv.Load()

	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Viper's stock decode hooks already cover everything the config uses:
	// "30s"-style durations and comma-separated lists from the environment.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load with a friendlier failure mode for the CLI: a --config
// path that points at nothing produces instructions for creating the file
// instead of a bare error. With no path it falls through to Load, which
// accepts a fully environment-driven setup.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Create it first:\n  callstream config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig renders cfg as YAML and writes it to path, creating parent
// directories as needed. The file is written 0600 since it may carry a
// database URL or S3 credentials.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config as yaml: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// newViper assembles a viper instance: environment binding, registered
// defaults, and the config file location.
func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// CALLSTREAM_LOGGING_LEVEL=DEBUG sets logging.level, and so on.
	v.SetEnvPrefix("CALLSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only answers for keys viper has seen, so register every
	// key's default; this is what lets a bare environment run the service
	// without any file at all.
	setDefaults(v)
	bindEnvAliases(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	return v
}

// setDefaults registers the default value of every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.endpoint", "http://localhost:4040")
	v.SetDefault("telemetry.profiling.profile_types", []string{})

	v.SetDefault("shutdown_timeout", "30s")

	v.SetDefault("database.type", "")
	v.SetDefault("database.sqlite.path", "")
	v.SetDefault("database.postgres.url", "")
	v.SetDefault("database.postgres.max_open_conns", 0)
	v.SetDefault("database.postgres.max_idle_conns", 0)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.failure_rate", 0.25)
	v.SetDefault("ai.min_latency", "1s")
	v.SetDefault("ai.max_latency", "3s")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.max_age", "24h")
	v.SetDefault("archive.interval", "1h")
	v.SetDefault("archive.batch_size", 100)
	v.SetDefault("archive.s3.bucket", "")
	v.SetDefault("archive.s3.region", "")
	v.SetDefault("archive.s3.endpoint", "")
	v.SetDefault("archive.s3.prefix", "")
	v.SetDefault("archive.s3.access_key_id", "")
	v.SetDefault("archive.s3.secret_access_key", "")
	v.SetDefault("archive.s3.force_path_style", false)

	v.SetDefault("metrics.enabled", false)
}

// bindEnvAliases binds the environment variable names the service answered to
// before it grew a config file. The prefixed form is listed first so it wins
// when both are set.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("database.postgres.url", "CALLSTREAM_DATABASE_POSTGRES_URL", "DATABASE_URL")
	_ = v.BindEnv("logging.level", "CALLSTREAM_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("ai.max_retries", "CALLSTREAM_AI_MAX_RETRIES", "MAX_AI_RETRIES")
	_ = v.BindEnv("ai.failure_rate", "CALLSTREAM_AI_FAILURE_RATE", "AI_FAILURE_RATE")
}

// getConfigDir resolves the per-user configuration directory.
// XDG_CONFIG_HOME is honored on every platform, which keeps the location
// redirectable in tests and containers; otherwise ~/.config is used, or the
// working directory when no home can be determined.
func getConfigDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "callstream")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "callstream")
}

// GetDefaultConfigPath returns the path `config init` writes to and the
// server reads from when --config is not given.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a file is present at the default path.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
