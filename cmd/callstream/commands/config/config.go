// Package config implements the 'callstream config' subcommands.
package config

import "github.com/spf13/cobra"

// Cmd groups the configuration tooling under one subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Inspect and scaffold CallStream configuration files.

Subcommands:
  init      Write a commented starter configuration
  show      Display the effective configuration
  schema    Emit a JSON schema for editors and validation`,
}

func init() {
	Cmd.AddCommand(initCmd, showCmd, schemaCmd)
}
