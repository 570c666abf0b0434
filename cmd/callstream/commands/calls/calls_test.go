package calls

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/voxhall/callstream/pkg/apiclient"
)

func TestBoolToYesNo(t *testing.T) {
	tests := []struct {
		input    bool
		expected string
	}{
		{true, "yes"},
		{false, "no"},
	}

	for _, tt := range tests {
		if got := boolToYesNo(tt.input); got != tt.expected {
			t.Errorf("boolToYesNo(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCallListRenderer(t *testing.T) {
	cl := CallList{
		{CallID: "call-1", State: "COMPLETED", LastSequence: 7},
		{CallID: "call-2", State: "FAILED", LastSequence: 0},
	}

	headers := cl.Headers()
	if len(headers) != 5 {
		t.Fatalf("Headers() returned %d columns, want 5", len(headers))
	}
	if headers[0] != "CALL ID" || headers[1] != "STATE" {
		t.Errorf("Headers() = %v, want CALL ID and STATE first", headers)
	}

	rows := cl.Rows()
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2", len(rows))
	}
	if rows[0][0] != "call-1" || rows[0][1] != "COMPLETED" || rows[0][2] != "7" {
		t.Errorf("Rows()[0] = %v, want call-1/COMPLETED/7", rows[0])
	}
	if rows[1][2] != "0" {
		t.Errorf("Rows()[1] last sequence = %q, want 0", rows[1][2])
	}
}

func TestSingleCallListRenderer(t *testing.T) {
	cl := SingleCallList{
		{
			CallID:       "call-9",
			State:        "PROCESSING_AI",
			LastSequence: 12,
			PacketCount:  13,
			HasAIResult:  false,
		},
	}

	rows := cl.Rows()
	if len(rows) != 7 {
		t.Fatalf("Rows() returned %d rows, want 7", len(rows))
	}

	want := map[string]string{
		"Call ID":       "call-9",
		"State":         "PROCESSING_AI",
		"Last Sequence": "12",
		"Packet Count":  "13",
		"AI Result":     "no",
	}
	for _, row := range rows {
		if expected, ok := want[row[0]]; ok && row[1] != expected {
			t.Errorf("row %q = %q, want %q", row[0], row[1], expected)
		}
	}
}

func TestSingleCallListEmpty(t *testing.T) {
	if rows := (SingleCallList{}).Rows(); rows != nil {
		t.Errorf("Rows() on empty list = %v, want nil", rows)
	}
}

func TestPrintListJSON(t *testing.T) {
	saved := outputFormat
	outputFormat = "json"
	defer func() { outputFormat = saved }()

	calls := []apiclient.CallSummary{{CallID: "call-1", State: "COMPLETED"}}

	var buf bytes.Buffer
	if err := printList(&buf, calls, false, "No calls found.", CallList(calls)); err != nil {
		t.Fatalf("printList() error: %v", err)
	}

	var decoded []apiclient.CallSummary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].CallID != "call-1" {
		t.Errorf("decoded = %+v, want one call-1 entry", decoded)
	}
}

func TestPrintListEmptyTable(t *testing.T) {
	saved := outputFormat
	outputFormat = "table"
	defer func() { outputFormat = saved }()

	var buf bytes.Buffer
	if err := printList(&buf, []apiclient.CallSummary{}, true, "No calls found.", CallList(nil)); err != nil {
		t.Fatalf("printList() error: %v", err)
	}

	if !strings.Contains(buf.String(), "No calls found.") {
		t.Errorf("expected empty message, got %q", buf.String())
	}
}

func TestPrintListInvalidFormat(t *testing.T) {
	saved := outputFormat
	outputFormat = "xml"
	defer func() { outputFormat = saved }()

	var buf bytes.Buffer
	if err := printList(&buf, nil, true, "", CallList(nil)); err == nil {
		t.Error("expected error for invalid output format")
	}
}
