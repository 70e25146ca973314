package feedapi

import (
	"time"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// ID aliases the wire identifier type: string-or-number on the wire,
// always a string locally.
type ID = models.ID

// ParticipantEnvelope is one member of a conversation listing entry.
type ParticipantEnvelope struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ConversationEnvelope is one entry of GET /conversations. The participant
// relationship is exposed inconsistently across backend versions: a
// participants array, an other_user object, or a raw user_ids array. All
// three must be checked when matching a pair.
type ConversationEnvelope struct {
	ID           ID                    `json:"id"`
	Name         string                `json:"name"`
	Avatar       string                `json:"avatar"`
	IsGroup      bool                  `json:"is_group"`
	Participants []ParticipantEnvelope `json:"participants"`
	OtherUser    *ParticipantEnvelope  `json:"other_user"`
	UserIDs      []ID                  `json:"user_ids"`
}

// MatchesPair reports whether the envelope describes the direct conversation
// between selfID and otherID, under any of the three representations.
func (e *ConversationEnvelope) MatchesPair(selfID, otherID string) bool {
	if e.IsGroup {
		return false
	}
	if len(e.Participants) == 2 {
		a, b := string(e.Participants[0].ID), string(e.Participants[1].ID)
		if (a == selfID && b == otherID) || (a == otherID && b == selfID) {
			return true
		}
	}
	if e.OtherUser != nil && string(e.OtherUser.ID) == otherID {
		return true
	}
	if len(e.UserIDs) == 2 {
		a, b := string(e.UserIDs[0]), string(e.UserIDs[1])
		if (a == selfID && b == otherID) || (a == otherID && b == selfID) {
			return true
		}
	}
	return false
}

// ToConversation converts the envelope to the local model. selfID fills in
// the participant pair when only other_user is present.
func (e *ConversationEnvelope) ToConversation(selfID string) *models.Conversation {
	conv := &models.Conversation{
		ID:          string(e.ID),
		IsGroup:     e.IsGroup,
		DisplayName: e.Name,
		AvatarRef:   models.NormalizeAttachmentPath(e.Avatar),
	}
	switch {
	case len(e.Participants) > 0:
		for _, p := range e.Participants {
			conv.ParticipantIDs = append(conv.ParticipantIDs, string(p.ID))
		}
	case len(e.UserIDs) > 0:
		for _, id := range e.UserIDs {
			conv.ParticipantIDs = append(conv.ParticipantIDs, string(id))
		}
	case e.OtherUser != nil:
		conv.ParticipantIDs = []string{selfID, string(e.OtherUser.ID)}
		if conv.DisplayName == "" {
			conv.DisplayName = e.OtherUser.Name
		}
	}
	return conv
}

// MessageEnvelope is a message as the backend serializes it.
type MessageEnvelope struct {
	ID             ID                   `json:"id"`
	ConversationID ID                   `json:"conversation_id"`
	SenderID       ID                   `json:"sender_id"`
	Content        string               `json:"content"`
	Attachments    []AttachmentEnvelope `json:"attachments"`
	CreatedAt      time.Time            `json:"created_at"`
	ClientTempID   string               `json:"client_temp_id"`
}

// ToMessage converts the envelope to the local model, normalizing
// attachment paths.
func (e *MessageEnvelope) ToMessage() *models.Message {
	msg := &models.Message{
		ID:             string(e.ID),
		ConversationID: string(e.ConversationID),
		SenderID:       string(e.SenderID),
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
		ClientTempID:   e.ClientTempID,
	}
	for _, a := range e.Attachments {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			Path:        models.NormalizeAttachmentPath(a.Path),
			MimeClass:   models.ClassifyMime(a.ContentType),
			DisplayName: a.DisplayName,
		})
	}
	return msg
}

// AttachmentEnvelope is an attachment as the backend serializes it. Paths
// arrive raw and are normalized on conversion.
type AttachmentEnvelope struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	DisplayName string `json:"display_name"`
}

// CreateConversationRequest is the body of POST /conversations.
type CreateConversationRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// CreateCommentRequest is the body of POST /posts/{id}/comments.
type CreateCommentRequest struct {
	AuthorID     string `json:"author_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
	ClientTempID string `json:"client_temp_id,omitempty"`
}

// CreateReplyRequest is the body of POST /comments/{id}/replies.
type CreateReplyRequest struct {
	AuthorID     string `json:"author_id" validate:"required"`
	ParentID     string `json:"parent_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
	ClientTempID string `json:"client_temp_id,omitempty"`
}

// ReactionRequest is the body of reaction endpoints.
type ReactionRequest struct {
	ReactorID string              `json:"reactor_id" validate:"required"`
	Type      models.ReactionType `json:"type" validate:"required"`
}
