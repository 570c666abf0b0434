package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/output"
	"github.com/voxhall/callstream/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Print the configuration the server would run with.

File values, CALLSTREAM_* environment variables, and built-in defaults
are merged before printing, so the output reflects the live settings
rather than the raw file.

Examples:
  callstream config show
  callstream config show --output json
  callstream config show --config /etc/callstream/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format: yaml or json")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.RenderJSON(os.Stdout, cfg)
	}
	return output.RenderYAML(os.Stdout, cfg)
}
