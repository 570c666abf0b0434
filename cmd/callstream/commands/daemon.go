package commands

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// startDaemon re-executes the binary in the background with --foreground,
// pointing its output at the daemon log file. The child writes the PID
// file itself once it is up.
func startDaemon() error {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = defaultPIDPath()
	}
	if err := ensureNotRunning(pidPath); err != nil {
		return err
	}

	logPath := logFile
	if logPath == "" {
		logPath = defaultLogPath()
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	childArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if cfgFile != "" {
		childArgs = append(childArgs, "--config", cfgFile)
	}

	sink, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daemon log file: %w", err)
	}
	defer func() { _ = sink.Close() }()

	child := exec.Command(self, childArgs...)
	child.Stdout = sink
	child.Stderr = sink
	// New session so the daemon survives the parent's terminal closing.
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("CallStream started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'callstream status' to check it and 'callstream stop' to stop it")
	return nil
}

// ensureNotRunning fails when the PID file points at a live process and
// clears the file when it is stale.
func ensureNotRunning(pidPath string) error {
	pid, err := readPID(pidPath)
	if err != nil {
		return nil
	}
	if processAlive(pid) {
		return fmt.Errorf("CallStream is already running (PID %d)\nUse 'callstream stop' to stop it first", pid)
	}
	_ = os.Remove(pidPath)
	return nil
}
