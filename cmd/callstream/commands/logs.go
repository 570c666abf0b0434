package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/voxhall/callstream/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server logs",
	Long: `Print the tail of the CallStream server log and optionally follow it.

The log file path comes from 'logging.output' in the server configuration.
When the server logs to stdout or stderr there is no file to read and this
command reports that instead.

Examples:
  callstream logs                               # last 100 lines
  callstream logs -n 25                         # last 25 lines
  callstream logs -f                            # follow new entries
  callstream logs --since 2026-03-14T09:00:00Z  # skip older entries`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.Logging.Output
	if path == "stdout" || path == "stderr" {
		return fmt.Errorf("server logs to %s, not a file\nSet 'logging.output' to a file path to use this command", path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read log file %s: %w", path, err)
	}

	var since time.Time
	if logsSince != "" {
		since, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	if err := printTail(os.Stdout, path, logsLines, since); err != nil {
		return err
	}
	if !logsFollow {
		return nil
	}
	return followFile(path)
}

// printTail writes the last n lines of the file to w, skipping lines whose
// record time predates since.
func printTail(w io.Writer, path string, n int, since time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if n <= 0 {
		n = 1
	}

	// Ring of the most recent n matching lines.
	ring := make([]string, n)
	total := 0
	for sc.Scan() {
		line := sc.Text()
		if !since.IsZero() {
			if ts, ok := lineTimestamp(line); ok && ts.Before(since) {
				continue
			}
		}
		ring[total%n] = line
		total++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	first := 0
	if total > n {
		first = total - n
	}
	for i := first; i < total; i++ {
		fmt.Fprintln(w, ring[i%n])
	}
	return nil
}

// followFile streams lines appended to path until interrupted. The file is
// watched with fsnotify rather than polled.
func followFile(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// New content only; printTail already covered the existing tail.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	reader := bufio.NewReader(f)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)\n", path)

	// Holds an unterminated trailing line until the writer completes it.
	var partial strings.Builder

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Write):
				for {
					chunk, err := reader.ReadString('\n')
					if err != nil {
						partial.WriteString(chunk)
						break
					}
					if partial.Len() > 0 {
						fmt.Print(partial.String())
						partial.Reset()
					}
					fmt.Print(chunk)
				}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				fmt.Fprintln(os.Stderr, "log file was rotated or removed, stopping")
				return nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// lineTimestamp extracts the record time from a log line. Text lines start
// with a bracketed local timestamp, JSON lines carry an RFC3339 "time" field.
func lineTimestamp(line string) (time.Time, bool) {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 1 {
			if t, err := time.ParseInLocation("2006-01-02 15:04:05", line[1:end], time.Local); err == nil {
				return t, true
			}
		}
	}

	const marker = `"time":"`
	if idx := strings.Index(line, marker); idx >= 0 {
		rest := line[idx+len(marker):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}
