package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the CallStream server",
	Long: `Stop a running CallStream server.

Sends SIGTERM so the server drains in-flight work before exiting. With
--force it sends SIGKILL instead, skipping graceful shutdown.

Examples:
  callstream stop
  callstream stop --pid-file /var/run/callstream.pid
  callstream stop --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/callstream/callstream.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Force kill (SIGKILL) instead of graceful shutdown (SIGTERM)")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = defaultPIDPath()
	}

	pid, err := readPID(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no PID file at %s\n\nIs the server running?", pidPath)
		}
		return err
	}

	sig, name := syscall.SIGTERM, "SIGTERM"
	if stopForce {
		sig, name = syscall.SIGKILL, "SIGKILL"
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	fmt.Printf("Sending %s to process %d...\n", name, pid)
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			fmt.Println("Server already stopped")
			_ = os.Remove(pidPath)
			return nil
		}
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	if stopForce {
		fmt.Println("Server terminated")
	} else {
		fmt.Println("Shutdown signal sent. The server will drain and exit on its own.")
	}
	return nil
}
