// Package timeutil provides time formatting utilities for CLI output.
package timeutil

import (
	"fmt"
	"time"
)

// LocalTimeFormat is the layout for absolute times in detail views.
const LocalTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatTime parses an RFC3339 timestamp and returns a local time string.
// Returns the original string if parsing fails.
func FormatTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Local().Format(LocalTimeFormat)
}

// FormatAge renders how long ago an RFC3339 timestamp was, in the largest
// useful unit ("45s", "12m", "3h", "6d"). List views use it to keep columns
// narrow. Returns the original string if parsing fails.
func FormatAge(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}

	d := time.Since(t)
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
