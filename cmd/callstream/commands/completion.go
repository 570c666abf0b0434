package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Write a completion script for the given shell to stdout.

Install it where your shell looks for completions, for example:

  # bash
  callstream completion bash > /etc/bash_completion.d/callstream

  # zsh
  callstream completion zsh > "${fpath[1]}/_callstream"

  # fish
  callstream completion fish > ~/.config/fish/completions/callstream.fish

  # powershell
  callstream completion powershell | Out-String | Invoke-Expression

Restart the shell afterwards so it picks the script up.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(os.Stdout)
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		default:
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}
