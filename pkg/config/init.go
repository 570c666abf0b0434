package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFileHeader is prepended to generated configuration files.
const configFileHeader = `# CallStream Configuration File
#
# This file was generated by 'callstream config init'.
# Every value can be overridden with a CALLSTREAM_* environment variable,
# e.g. CALLSTREAM_LOGGING_LEVEL=DEBUG or CALLSTREAM_DATABASE_POSTGRES_URL=...
# The bare variables DATABASE_URL, LOG_LEVEL, MAX_AI_RETRIES and
# AI_FAILURE_RATE are honored as well.
#
# Durations are written in Go syntax ("30s", "5m", "24h").

`

// InitConfig creates a configuration file with default values at the default
// location ($XDG_CONFIG_HOME/callstream/config.yaml).
//
// Returns the path of the created file. When force is false and a config file
// already exists, an error is returned and the file is left untouched.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a configuration file with default values at the
// given path, creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	content := append([]byte(configFileHeader), data...)

	// 0600: the file may later carry database URLs and S3 credentials.
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
