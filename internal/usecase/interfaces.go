package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// Notifier surfaces user-facing notices (toasts, blocking errors) to the
// connected UI.
type Notifier interface {
	Toast(ctx context.Context, severity, message string)
}

// ResolutionCache is a durable pair-key -> conversation-id mapping that
// survives restarts. Lookup misses return "" with a nil error.
type ResolutionCache interface {
	Lookup(ctx context.Context, pairKey string) (string, error)
	Store(ctx context.Context, pairKey, conversationID string) error
}

// EventDedup remembers which realtime message ids were already merged, so
// redelivery across reconnects and restarts stays a no-op.
type EventDedup interface {
	Seen(ctx context.Context, conversationID, messageID string) (bool, error)
	Record(ctx context.Context, conversationID, messageID string) error
}

// RealtimeChannel is the per-conversation push transport. Subscribe is
// idempotent per conversation id: there is exactly one logical subscription
// per id regardless of how many times it is requested.
type RealtimeChannel interface {
	Subscribe(conversationID string) error
	Unsubscribe(conversationID string) error
	OnMessage(handler func(ctx context.Context, conversationID string, msg *models.Message))
}
