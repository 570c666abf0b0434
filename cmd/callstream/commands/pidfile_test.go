package commands

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStateDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	if got := stateDir(); got != "/tmp/state/callstream" {
		t.Errorf("stateDir() = %q, want /tmp/state/callstream", got)
	}
	if got := defaultPIDPath(); got != "/tmp/state/callstream/callstream.pid" {
		t.Errorf("defaultPIDPath() = %q", got)
	}
	if got := defaultLogPath(); got != "/tmp/state/callstream/callstream.log" {
		t.Errorf("defaultLogPath() = %q", got)
	}
}

func TestPIDRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callstream.pid")

	if err := writePID(path); err != nil {
		t.Fatal(err)
	}

	pid, err := readPID(path)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("readPID() = %d, want %d", pid, os.Getpid())
	}
}

func TestReadPID(t *testing.T) {
	write := func(t *testing.T, contents string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "callstream.pid")
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("tolerates surrounding whitespace", func(t *testing.T) {
		pid, err := readPID(write(t, "  1234\n"))
		if err != nil {
			t.Fatal(err)
		}
		if pid != 1234 {
			t.Errorf("readPID() = %d, want 1234", pid)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, contents := range []string{"not-a-pid", "-4", "0", ""} {
			if _, err := readPID(write(t, contents)); err == nil {
				t.Errorf("readPID(%q) expected error", contents)
			}
		}
	})

	t.Run("missing file keeps os.ErrNotExist", func(t *testing.T) {
		_, err := readPID(filepath.Join(t.TempDir(), "absent.pid"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("current process should report alive")
	}
	if processAlive(1 << 30) {
		t.Error("absurd PID should report dead")
	}
}

func TestEnsureNotRunning(t *testing.T) {
	t.Run("live process blocks startup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "callstream.pid")
		if err := writePID(path); err != nil {
			t.Fatal(err)
		}

		if err := ensureNotRunning(path); err == nil {
			t.Error("expected error for live PID")
		}
	})

	t.Run("stale file removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "callstream.pid")
		if err := os.WriteFile(path, []byte("1073741824"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := ensureNotRunning(path); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Error("stale PID file should have been removed")
		}
	})

	t.Run("no file is fine", func(t *testing.T) {
		if err := ensureNotRunning(filepath.Join(t.TempDir(), "absent.pid")); err != nil {
			t.Fatal(err)
		}
	})
}
