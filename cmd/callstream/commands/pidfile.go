package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// stateDir resolves the directory for runtime state such as the PID file
// and the daemon log. XDG_STATE_HOME wins; otherwise ~/.local/state per
// the XDG base directory spec.
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "callstream")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "callstream")
	}
	return filepath.Join(home, ".local", "state", "callstream")
}

func defaultPIDPath() string {
	return filepath.Join(stateDir(), "callstream.pid")
}

func defaultLogPath() string {
	return filepath.Join(stateDir(), "callstream.log")
}

// readPID parses the process ID stored at path. The os.ReadFile error is
// returned as-is so callers can distinguish a missing file.
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(raw)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in %s: %q", path, raw)
	}
	return pid, nil
}

// writePID records the current process ID at path.
func writePID(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// processAlive reports whether a process with the given PID exists. Signal
// 0 performs the existence check without delivering anything.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
