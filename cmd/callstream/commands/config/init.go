package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a commented starter configuration file.

Without --config the file lands at $XDG_CONFIG_HOME/callstream/config.yaml.
An existing file is left alone unless --force is given.

Examples:
  callstream config init
  callstream config init --config /etc/callstream/config.yaml
  callstream config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	// The root command owns the persistent --config flag.
	target, _ := cmd.Flags().GetString("config")

	path, err := writeStarterConfig(target)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n\n", path)
	fmt.Println("Edit it to taste, then run 'callstream start' (add --config for a")
	fmt.Println("non-default path). The server also runs without any file: every key")
	fmt.Println("has a default and binds to CALLSTREAM_* environment variables, plus")
	fmt.Println("DATABASE_URL, LOG_LEVEL, MAX_AI_RETRIES, and AI_FAILURE_RATE.")
	return nil
}

func writeStarterConfig(target string) (string, error) {
	if target != "" {
		return target, config.InitConfigToPath(target, initForce)
	}
	return config.InitConfig(initForce)
}
