// Package calls implements operator subcommands for inspecting and managing
// calls.
package calls

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/output"
	"github.com/voxhall/callstream/pkg/apiclient"
)

var (
	serverURL    string
	outputFormat string
)

// Cmd is the calls subcommand.
var Cmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect and manage calls",
	Long: `Inspect and manage calls on a running CallStream server.

The list, status, and retry subcommands talk to the HTTP API. The archive
subcommand works directly against the configured database.

Subcommands:
  list      List calls, optionally filtered by state
  status    Show the status of a single call
  retry     Re-queue a FAILED call for AI processing
  archive   Archive a call directly in the database`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "CallStream API server URL")
	Cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, or yaml")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(archiveCmd)
}

// getClient returns an API client for the configured server.
func getClient() *apiclient.Client {
	return apiclient.New(serverURL)
}

// printList prints a collection in the selected format. Table format shows
// emptyMsg when the collection is empty.
func printList(w io.Writer, data any, isEmpty bool, emptyMsg string, renderer output.TableRenderer) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.RenderTable(w, renderer)
	}
	return output.Render(w, format, data)
}

// printResource prints a single resource in the selected format.
func printResource(w io.Writer, data any, renderer output.TableRenderer) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		return output.RenderTable(w, renderer)
	}
	return output.Render(w, format, data)
}

// printResourceWithSuccess prints the resource for JSON/YAML output and a
// success message for table output. Used by mutating subcommands.
func printResourceWithSuccess(w io.Writer, data any, successMsg string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		output.Success(w, successMsg)
		return nil
	}
	return output.Render(w, format, data)
}

// boolToYesNo renders a boolean as "yes" or "no" for table cells.
func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
