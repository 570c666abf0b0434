package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/pkg/config"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit a JSON schema for the configuration",
	Long: `Emit a JSON schema describing every CallStream configuration key.

Point your editor at the generated schema to get completion and
validation while editing config.yaml.

Examples:
  callstream config schema
  callstream config schema --output callstream.schema.json`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := configSchemaJSON()
	if err != nil {
		return err
	}

	if schemaOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(schemaOutput, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", schemaOutput)
	return nil
}

// configSchemaJSON reflects the configuration struct into a JSON schema
// document suitable for editor validation.
func configSchemaJSON() ([]byte, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	s := r.Reflect(&config.Config{})
	s.Version = "https://json-schema.org/draft/2020-12/schema"
	s.Title = "CallStream Configuration"
	s.Description = "Schema for the CallStream server configuration file"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to reflect config schema: %w", err)
	}
	return data, nil
}
