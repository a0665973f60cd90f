package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType discriminates the variants of Event.
type EventType string

const (
	EventDirectMessage EventType = "direct_message"
	EventGroupMessage  EventType = "group_message"
	EventVoiceNote     EventType = "voice_note"
	EventPresence      EventType = "presence"
	EventMemberAdded   EventType = "member_added"
	EventCallSignal    EventType = "call_signal"
)

// Call signal kinds carried in Event.Signal.
const (
	SignalIncomingCall = "incoming_call"
	SignalCallAccepted = "call_accepted"
	SignalCallEnded    = "call_ended"
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalICECandidate = "ice_candidate"
	SignalAudioChunk   = "audio_chunk"
)

// Event is the tagged union pushed to live sessions and held in pending
// queues. Type decides which fields are meaningful; everything else is
// omitted on the wire.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	// Messaging fields.
	From    string `json:"from,omitempty"`
	Group   string `json:"group,omitempty"`
	Body    string `json:"body,omitempty"`
	IsGroup bool   `json:"is_group,omitempty"`

	// Voice-note payload (base64 in JSON) and its stable blob reference.
	Data    []byte `json:"data,omitempty"`
	BlobRef string `json:"blob_ref,omitempty"`

	// Presence / membership fields.
	User   string `json:"user,omitempty"`
	Online bool   `json:"online,omitempty"`

	// Call signaling fields. Payload is opaque to the relay.
	Signal  string `json:"signal,omitempty"`
	Payload string `json:"payload,omitempty"`

	Timestamp int64 `json:"ts"`
}

// Queueable reports whether the event may fall back to a recipient's
// pending queue when live delivery cannot be confirmed. Presence and
// membership pushes are best-effort only, voice notes are replayed from
// history instead, and call signaling fails fast.
func (e Event) Queueable() bool {
	return e.Type == EventDirectMessage || e.Type == EventGroupMessage
}

func newEvent(t EventType) Event {
	return Event{
		ID:        ulid.Make().String(),
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewDirectMessage builds a direct text message event.
func NewDirectMessage(from, body string) Event {
	e := newEvent(EventDirectMessage)
	e.From = from
	e.Body = body
	return e
}

// NewGroupMessage builds a group text message event.
func NewGroupMessage(group, from, body string) Event {
	e := newEvent(EventGroupMessage)
	e.Group = group
	e.From = from
	e.Body = body
	e.IsGroup = true
	return e
}

// NewVoiceNote builds a voice-note event carrying the raw audio bytes
// for immediate push. The blob reference is what replay-on-reconnect
// later uses to re-read the payload.
func NewVoiceNote(from, target string, isGroup bool, blobRef string, data []byte) Event {
	e := newEvent(EventVoiceNote)
	e.From = from
	if isGroup {
		e.Group = target
	} else {
		e.User = target
	}
	e.IsGroup = isGroup
	e.BlobRef = blobRef
	e.Data = data
	return e
}

// NewPresenceChange builds a presence broadcast event.
func NewPresenceChange(user string, online bool) Event {
	e := newEvent(EventPresence)
	e.User = user
	e.Online = online
	return e
}

// NewMemberAdded builds a group membership notification event.
func NewMemberAdded(group, user string) Event {
	e := newEvent(EventMemberAdded)
	e.Group = group
	e.User = user
	return e
}

// NewCallSignal builds a call-signaling event. The payload is relayed
// verbatim, the relay never interprets it.
func NewCallSignal(signal, from, payload string) Event {
	e := newEvent(EventCallSignal)
	e.Signal = signal
	e.From = from
	e.Payload = payload
	return e
}
