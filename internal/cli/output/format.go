// Package output renders CLI results as tables, JSON, or YAML.
package output

import (
	"fmt"
	"strings"
)

// Format selects how a command renders its result.
type Format string

const (
	// FormatTable renders a borderless text table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied --output value to a Format. The empty
// string means table, and "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid output format %q (valid: table, json, yaml)", s)
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}
