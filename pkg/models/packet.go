package models

import "time"

// CallPacket represents one audio-metadata chunk received for a call.
//
// Packets carry a synthetic ID; their real identity is (call_id, sequence),
// enforced by a unique index. A packet is inserted exactly once by the ingest
// path and never mutated; duplicates of an already stored (call_id, sequence)
// pair are accepted and discarded without overwriting the first write.
type CallPacket struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	CallID     string    `gorm:"not null;size:255;uniqueIndex:idx_call_packets_call_sequence" json:"call_id"`
	Sequence   int64     `gorm:"not null;uniqueIndex:idx_call_packets_call_sequence" json:"sequence"`
	Data       string    `gorm:"not null" json:"data"`
	Timestamp  float64   `gorm:"not null" json:"timestamp"`
	ReceivedAt time.Time `gorm:"autoCreateTime" json:"received_at"`
}

// TableName returns the table name for CallPacket.
func (CallPacket) TableName() string {
	return "call_packets"
}
