package calls

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/timeutil"
	"github.com/voxhall/callstream/pkg/apiclient"
)

var (
	listState string
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List calls",
	Long: `List calls on the CallStream server.

Examples:
  # List recent calls as table
  callstream calls list

  # List only failed calls
  callstream calls list --state FAILED

  # List more calls
  callstream calls list --limit 200

  # List as JSON
  callstream calls list -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listState, "state", "", "Filter by state (IN_PROGRESS|PROCESSING_AI|COMPLETED|FAILED|ARCHIVED)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of calls to return")
}

// CallList is a list of calls for table rendering.
type CallList []apiclient.CallSummary

// Headers implements TableRenderer.
func (cl CallList) Headers() []string {
	return []string{"CALL ID", "STATE", "LAST SEQ", "AGE", "UPDATED"}
}

// Rows implements TableRenderer.
func (cl CallList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, c := range cl {
		rows = append(rows, []string{
			c.CallID,
			c.State,
			strconv.FormatInt(c.LastSequence, 10),
			timeutil.FormatAge(c.CreatedAt),
			timeutil.FormatAge(c.UpdatedAt),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := getClient()

	calls, err := client.ListCalls(cmd.Context(), listState, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list calls: %w", err)
	}

	return printList(os.Stdout, calls, len(calls) == 0, "No calls found.", CallList(calls))
}
