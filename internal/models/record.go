package models

import "time"

// HistoryVersion is the on-disk schema version written into every
// history record.
const HistoryVersion = 1

// RecordType discriminates history record variants.
type RecordType string

const (
	RecordText      RecordType = "text"
	RecordVoiceNote RecordType = "voice_note"
)

// HistoryRecord is an immutable append-only log entry. A record is
// written to the sender's log and to the target's (user or group) log.
type HistoryRecord struct {
	Version int        `json:"v"`
	Type    RecordType `json:"type"`
	From    string     `json:"from"`
	Target  string     `json:"target"`
	IsGroup bool       `json:"is_group"`
	// Body is the inline text for text records.
	Body string `json:"body,omitempty"`
	// BlobRef locates a stored voice-note payload for voice records.
	BlobRef   string `json:"blob_ref,omitempty"`
	Timestamp int64  `json:"ts"`
}

// NewTextRecord builds a text history record.
func NewTextRecord(from, target string, isGroup bool, body string) HistoryRecord {
	return HistoryRecord{
		Version:   HistoryVersion,
		Type:      RecordText,
		From:      from,
		Target:    target,
		IsGroup:   isGroup,
		Body:      body,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewVoiceRecord builds a voice-note history record referencing a
// stored blob.
func NewVoiceRecord(from, target string, isGroup bool, blobRef string) HistoryRecord {
	return HistoryRecord{
		Version:   HistoryVersion,
		Type:      RecordVoiceNote,
		From:      from,
		Target:    target,
		IsGroup:   isGroup,
		BlobRef:   blobRef,
		Timestamp: time.Now().UnixMilli(),
	}
}
