package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/internal/cli/health"
	"github.com/voxhall/callstream/internal/cli/output"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the server is running",
	Long: `Report whether the CallStream server is running and healthy.

Combines two checks: the PID file (daemon mode) and the health endpoint,
which also covers servers started in the foreground.

Examples:
  callstream status
  callstream status --api-port 9080
  callstream status -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "PID file to check (default: $XDG_STATE_HOME/callstream/callstream.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "Port the API listens on")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format: table, json, or yaml")
}

// ServerStatus is what `status` reports, rendered as a table, json, or yaml.
type ServerStatus struct {
	Running  bool   `json:"running" yaml:"running"`
	PID      int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message  string `json:"message" yaml:"message"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Healthy  bool   `json:"healthy" yaml:"healthy"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := collectStatus()

	if format != output.FormatTable {
		return output.Render(os.Stdout, format, status)
	}
	printStatusTable(status)
	return nil
}

// collectStatus combines the PID file check with a health endpoint probe.
// Either source alone can mark the server running: foreground servers have
// no PID file, and a wedged daemon may hold a PID without serving health.
func collectStatus() ServerStatus {
	status := ServerStatus{Message: "Server is not running"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = defaultPIDPath()
	}
	if pid, err := readPID(pidPath); err == nil && processAlive(pid) {
		status.Running = true
		status.PID = pid
	}

	report, reachable := probeHealth(statusAPIPort)
	switch {
	case report != nil:
		status.Running = true
		status.Healthy = report.IsHealthy()
		status.Database = report.Database
		if status.Healthy {
			status.Message = "Server is running and healthy"
		} else {
			status.Message = fmt.Sprintf("Server is running but unhealthy (database %s)", report.Database)
		}
	case reachable:
		status.Running = true
		status.Message = "Server is running but returned an invalid health response"
	case status.Running:
		status.Message = "Server process exists but the health endpoint is not answering"
	}

	return status
}

// probeHealth calls the health endpoint. reachable reports whether anything
// answered on the port, even if the body did not parse.
func probeHealth(port int) (report *health.Response, reachable bool) {
	client := http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed health.Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, true
	}
	return &parsed, true
}

func printStatusTable(status ServerStatus) {
	badge := "\033[31m○ Stopped\033[0m"
	if status.Running {
		badge = "\033[32m● Running\033[0m"
		if !status.Healthy {
			badge = "\033[33m● Running (unhealthy)\033[0m"
		}
	}

	fmt.Println()
	fmt.Println("CallStream Server Status")
	fmt.Println("========================")
	fmt.Println()
	fmt.Printf("  Status:     %s\n", badge)
	if status.PID != 0 {
		fmt.Printf("  PID:        %d\n", status.PID)
	}
	if status.Database != "" {
		fmt.Printf("  Database:   %s\n", status.Database)
	}
	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
