package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callTable is a minimal TableRenderer fixture.
type callTable struct {
	rows [][]string
}

func (c callTable) Headers() []string { return []string{"call id", "state"} }
func (c callTable) Rows() [][]string  { return c.rows }

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	table := callTable{rows: [][]string{
		{"call-1", "IN_PROGRESS"},
		{"call-2", "COMPLETED"},
	}}

	require.NoError(t, RenderTable(&buf, table))

	out := buf.String()
	// tablewriter upcases headers
	assert.Contains(t, out, "CALL ID")
	assert.Contains(t, out, "STATE")
	assert.Contains(t, out, "call-1")
	assert.Contains(t, out, "COMPLETED")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, map[string]any{"call_id": "call-1", "last_sequence": 4}))

	assert.Contains(t, buf.String(), "\n  \"call_id\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "call-1", decoded["call_id"])
	assert.Equal(t, float64(4), decoded["last_sequence"])
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderYAML(&buf, map[string]string{"state": "FAILED"}))
	assert.Contains(t, buf.String(), "state: FAILED")
}

func TestRenderDispatch(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatJSON, map[string]string{"a": "b"}))
		assert.Contains(t, buf.String(), `"a": "b"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatYAML, map[string]string{"a": "b"}))
		assert.Contains(t, buf.String(), "a: b")
	})

	t.Run("table renderer", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatTable, callTable{rows: [][]string{{"call-9", "ARCHIVED"}}}))
		assert.Contains(t, buf.String(), "call-9")
	})

	t.Run("table falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatTable, map[string]string{"plain": "value"}))
		assert.Contains(t, buf.String(), `"plain": "value"`)
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, Render(&buf, Format("csv"), nil))
	})
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "Call 'call-1' archived")

	out := buf.String()
	assert.Contains(t, out, "\033[32m")
	assert.Contains(t, out, "Call 'call-1' archived")
	assert.Contains(t, out, "\033[0m")
}
