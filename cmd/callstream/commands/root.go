// Package commands implements the callstream CLI: server lifecycle,
// database migrations, call inspection, and configuration tooling.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/cmd/callstream/commands/calls"
	"github.com/voxhall/callstream/cmd/callstream/commands/config"
)

// Build metadata, overridden via SetVersionInfo from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// cfgFile is the --config persistent flag shared by every subcommand.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "callstream",
	Short: "CallStream - Call ingestion and AI processing service",
	Long: `CallStream ingests streamed call packets over HTTP, persists them
durably, and orchestrates AI transcription with retries once a call
completes. Dashboards follow call state live over a WebSocket feed.

Use "callstream [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersionInfo records build metadata injected by main via ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/callstream/config.yaml)")

	for _, sub := range []*cobra.Command{
		startCmd,
		stopCmd,
		statusCmd,
		logsCmd,
		migrateCmd,
		versionCmd,
		completionCmd,
		calls.Cmd,
		config.Cmd,
	} {
		rootCmd.AddCommand(sub)
	}

	// We ship our own completion command with curated help.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
