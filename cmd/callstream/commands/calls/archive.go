package calls

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/prompt"
	"github.com/voxhall/callstream/pkg/config"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/store"
)

var archiveForce bool

var archiveCmd = &cobra.Command{
	Use:   "archive <call-id>",
	Short: "Archive a call",
	Long: `Archive a COMPLETED or FAILED call directly in the database.

Archiving is terminal: an archived call is never processed or retried
again. The server's retention sweeper archives old COMPLETED calls
automatically; this command archives a single call immediately.

This subcommand opens the database configured for the server rather than
going through the HTTP API, so it also works while the server is stopped.

Examples:
  # Archive with confirmation
  callstream calls archive call-2041

  # Skip the confirmation prompt
  callstream calls archive call-2041 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().BoolVarP(&archiveForce, "force", "f", false, "Skip confirmation prompt")
}

func runArchive(cmd *cobra.Command, args []string) error {
	callID := args[0]

	// Get config path from the root command's persistent flag
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Archive call '%s'?", callID), archiveForce)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	callStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open call store: %w", err)
	}
	defer func() { _ = callStore.Close() }()

	if err := callStore.ArchiveCall(context.Background(), callID); err != nil {
		switch {
		case errors.Is(err, models.ErrCallNotFound):
			return fmt.Errorf("call not found: %s", callID)
		case errors.Is(err, models.ErrInvalidTransition):
			return fmt.Errorf("call cannot be archived: %w", err)
		}
		return fmt.Errorf("failed to archive call: %w", err)
	}

	fmt.Printf("Call '%s' archived\n", callID)
	return nil
}
