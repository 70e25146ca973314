package models

import "encoding/json"

// RealtimeEnvelope is the wire format of one push event. The channel is
// at-least-once and unordered across reconnects; consumers must merge by id.
// The conversation id uses the flexible decode so numeric-id deployments
// deliver events too.
type RealtimeEnvelope struct {
	ConversationID ID              `json:"conversation_id"`
	Message        json.RawMessage `json:"message"`
}

// MessageReceived is an inbound realtime message event after decoding.
type MessageReceived struct {
	ConversationID string
	Message        *Message
}
