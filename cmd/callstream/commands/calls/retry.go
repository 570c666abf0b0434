package calls

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/pkg/apiclient"
)

var retryCmd = &cobra.Command{
	Use:   "retry <call-id>",
	Short: "Retry a failed call",
	Long: `Re-queue a FAILED call for AI processing.

Only calls in the FAILED state can be retried. The retry counter starts
over from zero.

Examples:
  # Retry a failed call
  callstream calls retry call-2041

  # Retry and show the server response as JSON
  callstream calls retry call-2041 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func runRetry(cmd *cobra.Command, args []string) error {
	callID := args[0]

	client := getClient()

	result, err := client.RetryCall(cmd.Context(), callID)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.IsNotFound():
				return fmt.Errorf("call not found: %s", callID)
			case apiErr.IsConflict():
				return fmt.Errorf("call %s cannot be retried: %s", callID, apiErr.Detail)
			}
		}
		return fmt.Errorf("failed to retry call: %w", err)
	}

	return printResourceWithSuccess(os.Stdout, result,
		fmt.Sprintf("Retry accepted for call '%s'", callID))
}
