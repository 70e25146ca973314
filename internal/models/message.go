package models

import "time"

// Message is a single entry in a conversation. ClientTempID exists only on
// locally-originated messages pending server confirmation; it is the join key
// used to replace a pending message with its confirmed counterpart without
// duplicating it when the same message also arrives on the realtime channel.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id" validate:"required"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	ClientTempID   string       `json:"client_temp_id,omitempty"`
}

// Pending reports whether the message is still waiting for a server id.
func (m *Message) Pending() bool {
	return m.ID == "" && m.ClientTempID != ""
}

// SendMessageParams is a conversation-scoped send as the gateway receives it.
// Empty content with no attachment is rejected before any network call.
type SendMessageParams struct {
	SelfID      string      `json:"self_id" validate:"required"`
	PeerID      string      `json:"peer_id" validate:"required"`
	Content     string      `json:"content"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	AttachedRaw []byte      `json:"-"`
}
