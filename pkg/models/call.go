package models

import (
	"sort"
	"strings"
	"time"
)

// CallState represents the lifecycle state of a call.
type CallState string

const (
	// StateInProgress is the state of a call that is still receiving packets.
	StateInProgress CallState = "IN_PROGRESS"
	// StateProcessingAI marks a call claimed by a processing run.
	StateProcessingAI CallState = "PROCESSING_AI"
	// StateCompleted marks a call with a successful AI result.
	StateCompleted CallState = "COMPLETED"
	// StateFailed marks a call whose processing exhausted its retries.
	StateFailed CallState = "FAILED"
	// StateArchived is the terminal state reached by retention.
	StateArchived CallState = "ARCHIVED"
)

// validTransitions is the edge set of the call state machine. A state that
// maps to an empty slice is terminal.
var validTransitions = map[CallState][]CallState{
	StateInProgress:   {StateProcessingAI, StateFailed, StateCompleted},
	StateProcessingAI: {StateCompleted, StateFailed},
	StateFailed:       {StateProcessingAI, StateArchived},
	StateCompleted:    {StateArchived},
	StateArchived:     {},
}

// IsValid checks if the state is a known CallState.
func (s CallState) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from s to target.
func (s CallState) CanTransitionTo(target CallState) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Processable reports whether a call in this state may be claimed by a
// processing run. Only fresh and previously failed calls qualify.
func (s CallState) Processable() bool {
	return s == StateInProgress || s == StateFailed
}

// ParseCallState converts a string (any case) to a CallState.
func ParseCallState(s string) (CallState, bool) {
	state := CallState(strings.ToUpper(s))
	return state, state.IsValid()
}

// Call represents one logical call session, the unit of state and AI processing.
//
// A call is created implicitly by the first packet that names its call_id and
// is never deleted by the ingest or processing paths; ARCHIVED is a terminal
// logical state. LastSequence records the highest sequence ever observed for
// the call, not the highest contiguous one.
type Call struct {
	CallID       string    `gorm:"primaryKey;size:255" json:"call_id"`
	State        CallState `gorm:"not null;size:50;default:IN_PROGRESS;index" json:"state"`
	LastSequence int64     `gorm:"not null;default:-1" json:"last_sequence"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Packets  []CallPacket  `gorm:"foreignKey:CallID;references:CallID;constraint:OnDelete:CASCADE" json:"packets,omitempty"`
	AIResult *CallAIResult `gorm:"foreignKey:CallID;references:CallID;constraint:OnDelete:CASCADE" json:"ai_result,omitempty"`
}

// TableName returns the table name for Call.
func (Call) TableName() string {
	return "calls"
}

// NewCall returns a call in its initial state with no packets observed yet.
func NewCall(callID string) *Call {
	return &Call{
		CallID:       callID,
		State:        StateInProgress,
		LastSequence: -1,
	}
}

// TransitionTo attempts to move the call to the target state. An invalid
// transition is a non-fatal no-op observed as false; a successful transition
// mutates UpdatedAt.
func (c *Call) TransitionTo(target CallState) bool {
	if !c.State.CanTransitionTo(target) {
		return false
	}
	c.State = target
	c.UpdatedAt = time.Now().UTC()
	return true
}

// PacketCount returns the number of loaded packets. It is only meaningful on
// a call fetched with its packets.
func (c *Call) PacketCount() int {
	return len(c.Packets)
}

// HasAIResult reports whether an AI result row is loaded for the call.
func (c *Call) HasAIResult() bool {
	return c.AIResult != nil
}

// CombinedData concatenates the data of all loaded packets in ascending
// sequence order into the blob handed to the transcriber.
func (c *Call) CombinedData() string {
	packets := make([]CallPacket, len(c.Packets))
	copy(packets, c.Packets)
	sort.Slice(packets, func(i, j int) bool {
		return packets[i].Sequence < packets[j].Sequence
	})

	var sb strings.Builder
	for _, p := range packets {
		sb.WriteString(p.Data)
	}
	return sb.String()
}
