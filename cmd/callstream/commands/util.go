package commands

import (
	"fmt"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/config"
)

// initLogging configures the process-wide logger from the loaded config.
func initLogging(cfg *config.Config) error {
	err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// configSource names where the active configuration came from, for the
// startup log line.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
