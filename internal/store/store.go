// Package store holds the owned state containers for the two aggregate
// families: the feed view's Post aggregate and the messaging view's
// Conversation/Message aggregate. Only the mutation engine and the realtime
// reconciler write to them; everything else subscribes read-only.
package store

// EventType labels a store change notification.
type EventType string

const (
	EventConversationUpdated EventType = "conversation_updated"
	EventMessagesChanged     EventType = "messages_changed"
	EventPostChanged         EventType = "post_changed"
)

// Event is one store change, delivered to subscribed observers.
type Event struct {
	Type EventType `json:"type"`
	// AggregateID is the conversation id (or pair key for pending
	// placeholders) or the post id the change belongs to.
	AggregateID string `json:"aggregate_id"`
}

// Listener receives store change events. Listeners must not call back into
// the store synchronously.
type Listener func(Event)
