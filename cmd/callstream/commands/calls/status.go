package calls

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/timeutil"
	"github.com/voxhall/callstream/pkg/apiclient"
)

var statusCmd = &cobra.Command{
	Use:   "status <call-id>",
	Short: "Show call status",
	Long: `Show the current state and progress of a single call.

Examples:
  # Show call status as table
  callstream calls status call-2041

  # Show as JSON
  callstream calls status call-2041 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

// SingleCallList wraps a single call status for table rendering.
type SingleCallList []apiclient.CallStatus

// Headers implements TableRenderer.
func (cl SingleCallList) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

// Rows implements TableRenderer.
func (cl SingleCallList) Rows() [][]string {
	if len(cl) == 0 {
		return nil
	}
	c := cl[0]

	return [][]string{
		{"Call ID", c.CallID},
		{"State", c.State},
		{"Last Sequence", strconv.FormatInt(c.LastSequence, 10)},
		{"Packet Count", strconv.Itoa(c.PacketCount)},
		{"AI Result", boolToYesNo(c.HasAIResult)},
		{"Created", timeutil.FormatTime(c.CreatedAt)},
		{"Updated", timeutil.FormatTime(c.UpdatedAt)},
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	callID := args[0]

	client := getClient()

	status, err := client.GetCallStatus(cmd.Context(), callID)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return fmt.Errorf("call not found: %s", callID)
		}
		return fmt.Errorf("failed to get call status: %w", err)
	}

	return printResource(os.Stdout, status, SingleCallList{*status})
}
