package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	accepted := map[string]Format{
		"":        FormatTable,
		"table":   FormatTable,
		"json":    FormatJSON,
		"Json":    FormatJSON,
		"yaml":    FormatYAML,
		"yml":     FormatYAML,
		"  yaml ": FormatYAML,
	}
	for input, want := range accepted {
		got, err := ParseFormat(input)
		require.NoError(t, err, "ParseFormat(%q)", input)
		assert.Equal(t, want, got, "ParseFormat(%q)", input)
	}

	for _, input := range []string{"xml", "jsonl", "csv"} {
		_, err := ParseFormat(input)
		assert.ErrorContains(t, err, "invalid output format", "ParseFormat(%q)", input)
	}
}

func TestFormatString(t *testing.T) {
	names := map[Format]string{
		FormatTable: "table",
		FormatJSON:  "json",
		FormatYAML:  "yaml",
	}
	for format, want := range names {
		assert.Equal(t, want, format.String())
	}
}
