package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// TableRenderer is implemented by result types that know their own
// tabular layout.
type TableRenderer interface {
	// Headers returns the column headers.
	Headers() []string
	// Rows returns one []string per table row.
	Rows() [][]string
}

// Render writes v to w in the given format. Table output requires v to
// implement TableRenderer; values that do not fall back to JSON.
func Render(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		return RenderJSON(w, v)
	case FormatYAML:
		return RenderYAML(w, v)
	case FormatTable:
		if t, ok := v.(TableRenderer); ok {
			return RenderTable(w, t)
		}
		return RenderJSON(w, v)
	}
	return fmt.Errorf("unknown output format %q", f)
}

// RenderTable writes t as a borderless, left-aligned table.
func RenderTable(w io.Writer, t TableRenderer) error {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Headers())
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(true)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)

	for _, row := range t.Rows() {
		tw.Append(row)
	}

	tw.Render()
	return nil
}

// RenderJSON writes v as indented JSON followed by a newline.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderYAML writes v as YAML with two-space indentation.
func RenderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(v)
}

// Success writes a green confirmation line. Mutating commands use it for
// table-format output, where there is no resource to render.
func Success(w io.Writer, msg string) {
	_, _ = fmt.Fprintf(w, "\033[32m%s\033[0m\n", msg)
}
